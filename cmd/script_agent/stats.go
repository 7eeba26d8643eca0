package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman/scriptline/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue host statistics",
	RunE:  runStats,
}

var statsConfigPath string

func init() {
	statsCmd.Flags().StringVar(&statsConfigPath, "config", "config.json", "Path to config.json")
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, statsConfigPath)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.queue.GetStats(ctx)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintQueueStats(stats)
	return nil
}
