// Package session holds one conversation with the Second Brain backend: the
// message log, the in-flight chat flag and the status of the latest upload,
// together with the dispatchers that reconcile backend calls into that state.
package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondbrain/internal/brain"
)

// Brain is the backend the dispatchers talk to.
type Brain interface {
	Chat(ctx context.Context, message string) (*brain.ChatReply, error)
	Upload(ctx context.Context, name string, content io.Reader, kind brain.Kind) (*brain.UploadAck, error)
}

// Publisher receives settled chat and upload events. It may be nil.
type Publisher interface {
	Publish(subject string, data any) error
}

type Options struct {
	ChatTimeout   time.Duration
	UploadTimeout time.Duration
	Publisher     Publisher
	Logger        *slog.Logger
}

type Session struct {
	state  *State
	brain  Brain
	events Publisher
	logger *slog.Logger

	chatTimeout   time.Duration
	uploadTimeout time.Duration
}

func New(b Brain, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := NewState()
	return &Session{
		state:         st,
		brain:         b,
		events:        opts.Publisher,
		logger:        logger.With("session_id", st.ID().String()),
		chatTimeout:   opts.ChatTimeout,
		uploadTimeout: opts.UploadTimeout,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.state.ID()
}

func (s *Session) Snapshot() Snapshot {
	return s.state.Snapshot()
}

func (s *Session) Pending() bool {
	return s.state.Pending()
}

func (s *Session) UploadStatus() string {
	return s.state.UploadStatus()
}

func (s *Session) publish(subject string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
