package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tptkds/assetManagement/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "asset-server %s\n", common.CurrentBuild())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
