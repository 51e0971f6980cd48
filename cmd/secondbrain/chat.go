package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/secondbrain/internal/console"
)

var noColor bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts an interactive conversation in the terminal. Type questions and
press enter; use /upload <path> to ingest a document and /quit to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ev, err := connectEvents(ctx, cfg)
	if err != nil {
		return err
	}
	if ev != nil {
		defer ev.Close()
	}

	printer := console.NewPrinter(cmd.OutOrStdout())
	if noColor {
		printer.SetColor(false)
	}
	return console.New(newSession(cfg, ev), os.Stdin, printer).Run(ctx)
}
