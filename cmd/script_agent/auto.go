package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aman/scriptline/internal/scheduler"
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run the automatic scheduler until interrupted",
	Long: `Starts the scheduler loop: every tick, each configured channel
processes its remaining daily quota of videos. Batches left running by
a previous process are marked interrupted on startup.`,
	RunE: runAuto,
}

var autoConfigPath string

func init() {
	autoCmd.Flags().StringVar(&autoConfigPath, "config", "config.json", "Path to config.json")
	rootCmd.AddCommand(autoCmd)
}

func runAuto(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, autoConfigPath)
	if err != nil {
		return err
	}
	defer a.close()

	recovered, err := a.scheduler.RecoverInterrupted(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		fmt.Printf("Marked %d stale batch(es) as interrupted\n", recovered)
	}

	ticker, err := scheduler.NewTicker(a.scheduler)
	if err != nil {
		return err
	}

	fmt.Printf("Scheduler running every %d minute(s), %d channel(s) configured\n",
		a.cfg.AutoIntervalMin, len(a.cfg.Channels))
	ticker.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("Stopping scheduler...")
	ticker.Stop()
	return nil
}
