package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ussdpilot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ussdpilot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ussdpilot version %s\n", strings.TrimSpace(ussdpilot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
