package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman/scriptline/internal/observability"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recorded batches",
	Long:  `Lists batch records newest first. Batches still marked running belong to a process that died mid-batch.`,
	RunE:  runBatches,
}

var (
	batchesConfigPath string
	batchesStatus     string
)

func init() {
	batchesCmd.Flags().StringVar(&batchesConfigPath, "config", "config.json", "Path to config.json")
	batchesCmd.Flags().StringVar(&batchesStatus, "status", "", "Filter by status (running, completed, interrupted)")
	rootCmd.AddCommand(batchesCmd)
}

func runBatches(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, batchesConfigPath)
	if err != nil {
		return err
	}
	defer a.close()

	batches, err := a.store.ListBatches(ctx, batchesStatus)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintBatches(batches)
	return nil
}
