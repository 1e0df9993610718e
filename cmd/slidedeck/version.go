package main

import (
	"fmt"

	"github.com/aretw0/slidedeck"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of slidedeck",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "slidedeck version %s\n", slidedeck.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
