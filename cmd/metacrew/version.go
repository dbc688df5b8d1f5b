package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		if global.JSON {
			printJSON(cmd.OutOrStdout(), map[string]string{"version": version, "commit": commit})
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "metacrew %s (commit: %s)\n", version, commit)
	},
}
