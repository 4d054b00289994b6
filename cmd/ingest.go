package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashryn/docschat/internal/app"
	"github.com/ashryn/docschat/internal/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Load documents into the corpus",
	Long: `Ingest embeds and stores documents so they can be retrieved at query
time. A file argument ingests that file; a directory is walked recursively
and every .md and .txt file is ingested. Re-ingesting a path replaces the
stored document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	out := cmd.OutOrStdout()

	if !info.IsDir() {
		if err := a.Ingestor.IngestFile(ctx, path); err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Fprintf(out, "Ingested %s\n", path)
		return nil
	}

	res, err := a.Ingestor.IngestDir(ctx, path)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}
	fmt.Fprintf(out, "Ingested %d file(s) in %s (%d skipped, %d failed)\n",
		res.FilesAdded, res.Duration.Round(time.Millisecond), res.FilesSkipped, res.FilesFailed)
	return nil
}
