// Package cmd implements the docschat CLI.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ashryn/docschat/internal/config"
	"github.com/ashryn/docschat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "docschat",
	Short: "Chat over your internal documentation",
	Long: `docschat answers questions against an internal document corpus.

Queries are matched against stored documents; confident matches are answered
from the docs alone, everything else may fall back to the model's general
knowledge. Every answer is labelled with its provenance (KB, KB+LLM, LLM).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from config and installs it as the
// slog default so package-level logging (migrations, viper fallbacks) uses
// the same handler.
func newLogger(cfg *config.Config) log.Logger {
	logger := log.New(log.Config{
		Level: parseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
