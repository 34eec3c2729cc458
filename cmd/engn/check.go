// Check command for the engn CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engn/internal/checker"
)

var checkCmd = &cobra.Command{
	Use:   "check [target]",
	Short: "Check validity of JSONL collection files",
	Long: `Check walks the target file or directory (default: the configured data
paths), resolves imports, validates every definition and data line, and
reports each problem with its file and line.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 1 {
			target = args[0]
		}

		c, err := newChecker()
		if err != nil {
			return err
		}

		files, err := c.Discover(target)
		if err != nil {
			if errors.Is(err, checker.ErrTargetNotFound) {
				fmt.Printf("Error: Target '%s' not found.\n", target)
				return errSilent
			}
			return err
		}
		if len(files) == 0 {
			fmt.Println("No JSONL files found to check.")
			return nil
		}

		res := c.Check(files)
		res.WriteReport(os.Stdout)
		if !res.OK() {
			return errSilent
		}
		return nil
	},
}
