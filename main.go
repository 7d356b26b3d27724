package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	defaultDSN string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "consult7-db",
		Short: "Read-only database MCP server",
		Long: "Serves the query_database MCP tool over stdio, executing read-only queries " +
			"against MySQL, PostgreSQL, SQLite and MongoDB with pooled connections, " +
			"defense-in-depth write blocking and token-budget result truncation.",
		RunE: runServer,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to YAML limits file")
	rootCmd.Flags().StringVar(&defaultDSN, "default-dsn", "", "DSN used when a tool call supplies none")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if defaultDSN != "" {
		cfg.DefaultDSN = defaultDSN
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	server := NewMCPServer(ctx, cfg)
	defer server.Close()

	go func() {
		<-sigChan
		server.log.Info().Msg("received shutdown signal")
		cancel()
	}()

	server.log.Info().Str("version", ServerVersion).Msg("database MCP server started (read-only mode)")

	if err := server.Run(); err != nil && err != context.Canceled {
		return err
	}
	server.log.Info().Msg("server shutdown")
	return nil
}
