package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/secondbrain/internal/brain"
	"github.com/MikeSquared-Agency/secondbrain/internal/config"
	"github.com/MikeSquared-Agency/secondbrain/internal/events"
	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

var (
	baseURLFlag  string
	logLevelFlag string
	cfg          config.Config
)

var rootCmd = &cobra.Command{
	Use:   "secondbrain",
	Short: "Chat with your Second Brain and feed it documents",
	Long: `secondbrain talks to a Second Brain question-answering service.
Upload PDF or text documents to train it, then ask questions about them.
The service root defaults to http://localhost:8000 and can be changed with
SECONDBRAIN_BASE_URL or --base-url.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Second Brain service root (overrides SECONDBRAIN_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	if baseURLFlag != "" {
		cfg.BaseURL = config.NormalizeBaseURL(baseURLFlag)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	setupLogging(cfg.LogLevel)
	slog.Debug("config loaded", "base_url", cfg.BaseURL)
	return nil
}

func execute(ctx context.Context) error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.ExecuteContext(ctx)
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("secondbrain %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("secondbrain %s\n", version)
}

// connectEvents returns nil when no NATS server is configured.
func connectEvents(ctx context.Context, cfg config.Config) (*events.Client, error) {
	if cfg.NatsURL == "" {
		return nil, nil
	}
	client, err := events.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		return nil, err
	}
	slog.Info("NATS connected", "url", cfg.NatsURL)
	return client, nil
}

func newSession(cfg config.Config, ev *events.Client) *session.Session {
	opts := session.Options{
		ChatTimeout:   cfg.ChatTimeout,
		UploadTimeout: cfg.UploadTimeout,
		Logger:        slog.Default(),
	}
	if ev != nil {
		opts.Publisher = ev
	}
	return session.New(brain.NewClient(cfg.BaseURL), opts)
}
