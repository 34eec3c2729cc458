// Package main provides the engn CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Exit codes.
const (
	exitSuccess    = 0
	exitDataError  = 1
	exitUsageError = 2
)

// errSilent marks a failure whose message the command already printed;
// main only translates it into the exit code.
var errSilent = errors.New("reported failure")

// errUsage marks flag and argument parse failures.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, errSilent) {
		return exitDataError
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.Is(err, errUsage) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUsageError
	}
	return exitDataError
}
