package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/secondbrain/internal/console"
	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("question is empty")
	}

	ctx := cmd.Context()
	ev, err := connectEvents(ctx, cfg)
	if err != nil {
		return err
	}
	if ev != nil {
		defer ev.Close()
	}

	sess := newSession(cfg, ev)
	if err := sess.Send(ctx, question); err != nil {
		return err
	}

	printer := console.NewPrinter(cmd.OutOrStdout())
	if noColor {
		printer.SetColor(false)
	}
	msgs := sess.Snapshot().Messages
	answer := msgs[len(msgs)-1]
	printer.Message(answer)

	if answer.Content == session.ChatErrorText || answer.Content == session.InvalidReplyText {
		return errors.New("no answer from the Second Brain")
	}
	return nil
}
