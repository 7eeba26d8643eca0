package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aman/scriptline/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long:  `Starts an HTTP server with endpoints to trigger batches, inspect batch records, and proxy queue statistics.`,
	RunE:  runServe,
}

var (
	serveConfigPath string
	serveAddr       string
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.json", "Path to config.json")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, serveConfigPath)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.ServerAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(server.Config{
		Addr:   addr,
		APIKey: a.cfg.ServerAPIKey,
	}, a.scheduler, a.store, a.queue)

	return srv.Start()
}
