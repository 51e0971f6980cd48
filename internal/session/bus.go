package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MikeSquared-Agency/secondbrain/internal/events"
)

// HandleChatSubmit is the NATS handler for chat messages submitted on the
// bus. Submissions arriving while a chat is pending are dropped.
func (s *Session) HandleChatSubmit(subject string, data []byte) {
	var submit events.ChatSubmit
	if err := json.Unmarshal(data, &submit); err != nil {
		s.logger.Error("failed to parse chat submission", "subject", subject, "error", err)
		return
	}

	if err := s.Send(context.Background(), submit.Message); err != nil {
		if errors.Is(err, ErrBusy) {
			s.logger.Warn("dropped chat submission while busy", "subject", subject)
			return
		}
		s.logger.Error("chat submission failed", "subject", subject, "error", err)
	}
}
