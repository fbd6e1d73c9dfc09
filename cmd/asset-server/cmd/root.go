package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "asset-server",
	Short: "Portfolio valuation and market data service",
	Long: `asset-server values stock holdings against cached real-time prices.

It provides:
  - a REST API for portfolio summaries, market indices and today's tip
  - a background loop keeping real-time prices fresh in the cache
  - publishers for exchange rates, index snapshots and the daily tip`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $ASSET_CONFIG, asset.toml next to the binary, then config/asset.toml)")
}
