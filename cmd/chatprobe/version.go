package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/chatprobe/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ChatProbe version %s\n", common.GetFullVersion())
	},
}
