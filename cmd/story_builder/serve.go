package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/story-builder/internal/db"
	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/pipeline"
	"github.com/jonathan/story-builder/internal/server"
	"github.com/jonathan/story-builder/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that runs the story pipeline and stores the results in PostgreSQL.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.GatewayAPIKey == "" {
		logger.Warn("LLM gateway API key not configured; runs will fail until it is set")
	}
	port := cfg.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if serveMigrate {
		applied, err := database.Migrate(ctx)
		if err != nil {
			database.Close()
			return err
		}
		logger.Info("migrations applied", "count", len(applied))
	}

	client, err := llm.NewClient(ctx, cfg.LLM(), logger)
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	scorer, err := cfg.Scorer()
	if err != nil {
		client.Close() //nolint:errcheck
		database.Close()
		return err
	}
	logger.Info("testability rules loaded", "version", scorer.RuleSetVersion())

	orch := pipeline.New(client, cfg.Pipeline(),
		pipeline.WithLogger(logger),
		pipeline.WithScorer(scorer),
	)

	srv := server.New(server.Config{Port: port, RateLimit: ratelimit.LoadConfig()}, database, orch,
		server.WithLogger(logger),
		server.OnShutdown(func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing LLM client", "error", err)
			}
		}),
		server.OnShutdown(database.Close),
	)
	return srv.Start()
}
