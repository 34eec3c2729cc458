// Print command for the engn CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engn/internal/checker"
)

var printCmd = &cobra.Command{
	Use:   "print [target]",
	Short: "Pretty-print JSONL collection files",
	Long: `Print renders every definition and data item in the target file or
directory (default: the configured data paths) in a human-readable layout,
resolving imports the same way check does.`,
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
			fmt.Println("No JSONL files found to print.")
			return nil
		}

		c.Print(os.Stdout, files)
		return nil
	},
}
