package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman/scriptline/internal/observability"
	"github.com/aman/scriptline/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a batch of videos for one channel now",
	Long: `Runs one manual batch: picks the most viewed unprocessed videos from
the channel's pool, rewrites each transcript, and submits the results
to the synthesis queue.`,
	RunE: runProcess,
}

var (
	processConfigPath string
	processChannel    string
	processCount      int
	processVerbose    bool
)

func init() {
	processCmd.Flags().StringVar(&processConfigPath, "config", "config.json", "Path to config.json")
	processCmd.Flags().StringVar(&processChannel, "channel", "", "Channel code to process (required)")
	processCmd.Flags().IntVarP(&processCount, "count", "n", 1, "Number of videos to process")
	processCmd.Flags().BoolVarP(&processVerbose, "verbose", "v", false, "Print per-item progress")
	_ = processCmd.MarkFlagRequired("channel")

	rootCmd.AddCommand(processCmd)
}

func runProcess(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, processConfigPath)
	if err != nil {
		return err
	}
	defer a.close()

	if processVerbose {
		a.pipeline.OnProgress = func(event pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s %s\n", event.Step, event.VideoID, event.Message)
		}
	}

	report, err := a.scheduler.RunChannel(ctx, processChannel, processCount)
	if report != nil {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintBatchResult(report.ChannelCode, report.Processed, report.Skipped, report.Failed)
	}
	return err
}
