package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/secondbrain/internal/console"
	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload documents for ingestion",
	Long: `Uploads each file in turn. Files ending in .pdf are sent as PDF, all
others as text. The command only starts ingestion on the service; it does not
wait for indexing to finish.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ev, err := connectEvents(ctx, cfg)
	if err != nil {
		return err
	}
	if ev != nil {
		defer ev.Close()
	}

	sess := newSession(cfg, ev)
	printer := console.NewPrinter(cmd.OutOrStdout())
	if noColor {
		printer.SetColor(false)
	}

	failed := 0
	for _, path := range args {
		if err := console.UploadPath(ctx, sess, path); err != nil {
			printer.Error("%v", err)
			failed++
			continue
		}
		status := sess.UploadStatus()
		printer.UploadStatus(fmt.Sprintf("%s: %s", path, status))
		if session.UploadFailed(status) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
