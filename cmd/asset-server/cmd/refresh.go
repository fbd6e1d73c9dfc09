package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tptkds/assetManagement/internal/app"
)

var publishToo bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle over the instrument universe and exit",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&publishToo, "publish", false, "also publish exchange rates, indices and today's tip")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := app.NewApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Refresh == nil {
		return errors.New("refresh needs an EODHD API key (clients.eodhd.api_key or EODHD_API_KEY)")
	}

	stats, err := a.Refresh.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: %d instruments, %d saved, %d failed, %d chunk errors\n",
		stats.CycleID, stats.Instruments, stats.Saved, stats.Failed, stats.ChunkErrors)

	if publishToo {
		if err := a.Publisher.PublishAll(cmd.Context()); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "published exchange rates, indices and today's tip")
	}
	return nil
}
