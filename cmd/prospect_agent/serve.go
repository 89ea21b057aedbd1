package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pellera/prospect-engine/internal/config"
	"github.com/pellera/prospect-engine/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running prospecting pipelines, streaming progress and managing client projects.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	st, executor, cleanup, err := buildEngine(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer cleanup()

	srv := server.New(server.Config{Port: cfg.Port}, st, executor)
	return srv.Start()
}
