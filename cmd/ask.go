package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ashryn/docschat/internal/app"
	"github.com/ashryn/docschat/internal/chat"
	"github.com/ashryn/docschat/internal/config"
)

var (
	askSession string
	askAugment bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask runs one query turn and prints the reply with its provenance label.

Pass --session to continue an existing conversation; without it a fresh
session is created and its id printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "session id to continue (UUID)")
	askCmd.Flags().BoolVar(&askAugment, "augment", false, "let the model go beyond internal docs")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	var sessionID uuid.UUID
	if askSession != "" {
		sessionID, err = uuid.Parse(askSession)
		if err != nil {
			return fmt.Errorf("invalid session id %q: %w", askSession, err)
		}
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

	// The flag wins when set; otherwise the configured default applies.
	augment := cfg.AugmentDefault
	if cmd.Flags().Changed("augment") {
		augment = askAugment
	}

	result, err := a.Pipeline.HandleTurn(ctx, chat.TurnRequest{
		SessionID: sessionID,
		Message:   question,
		Augment:   augment,
	})
	if err != nil {
		return fmt.Errorf("handling turn: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Reply)
	fmt.Fprintf(out, "\n[source: %s, session: %s]\n", result.Source, result.SessionID)
	return nil
}
