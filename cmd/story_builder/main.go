// Package main provides the story_builder CLI: the HTTP API server, one-off
// story generation and schema migration.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/story-builder/internal/config"
)

var (
	configPath string

	// set by loadConfig before any subcommand runs
	appConfig *config.Config
	logger    = slog.Default()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "story_builder",
	Short: "User story generation and quality checks",
	Long: "story_builder turns free-form requirements into structured user stories, " +
		"checks them against a Definition of Ready and scores their quality, " +
		"across one or several models.",
	SilenceUsage:       true,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: closeLogs,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file (environment variables override it)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	appConfig, logger, logCloser = cfg, l, closer
	slog.SetDefault(l)
	return nil
}

func closeLogs(_ *cobra.Command, _ []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
