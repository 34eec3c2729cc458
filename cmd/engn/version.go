// Version command for the engn CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engn/pkg/engine"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engn version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("engn", engine.Version)
	},
}
