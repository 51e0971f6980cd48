package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/secondbrain/internal/api"
	"github.com/MikeSquared-Agency/secondbrain/internal/events"
)

const shutdownTimeout = 10 * time.Second

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one session over a local HTTP API",
	Long: `Hosts a single conversation session behind a local HTTP API for a web
front end. When NATS_URL is set, settled chat turns and uploads are published
and chat messages submitted on the bus are answered in the same session.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "listen port (overrides SECONDBRAIN_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if portFlag > 0 {
		cfg.Port = portFlag
	}
	slog.Info("secondbrain starting", "port", cfg.Port, "base_url", cfg.BaseURL)

	g, ctx := errgroup.WithContext(cmd.Context())

	ev, err := connectEvents(ctx, cfg)
	if err != nil {
		return err
	}
	if ev != nil {
		defer ev.Close()
	}

	sess := newSession(cfg, ev)

	if ev != nil {
		if err := ev.Subscribe(events.SubjectChatSubmit, sess.HandleChatSubmit); err != nil {
			return err
		}
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, sess)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if ev != nil {
		if err := ev.Publish(events.SubjectRegistered, events.Registered{
			SessionID: sess.ID().String(),
			Port:      cfg.Port,
			BaseURL:   cfg.BaseURL,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("secondbrain ready", "port", cfg.Port, "session_id", sess.ID().String())

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("secondbrain stopped")
	return nil
}
