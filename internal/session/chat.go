package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/secondbrain/internal/brain"
	"github.com/MikeSquared-Agency/secondbrain/internal/events"
)

// ErrBusy is returned by Send while another chat request is pending.
var ErrBusy = errors.New("a chat request is already pending")

const (
	// ChatErrorText is the ai turn appended when the backend cannot be reached
	// or answers with a non-success status.
	ChatErrorText = "Error connecting to brain."
	// InvalidReplyText is the ai turn appended when the backend answers with a
	// body that lacks a usable reply.
	InvalidReplyText = "The brain sent an answer I could not read."
)

// Send runs one chat turn. Blank text is ignored. Otherwise the user message
// is appended and pending raised, the backend is called, and exactly one ai
// message is appended before pending is cleared. Request failures become
// that ai message; the only error returned is ErrBusy, in which case nothing
// was changed.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if !s.state.beginChat(newMessage(RoleUser, text, nil)) {
		return ErrBusy
	}

	ctx, cancel := withTimeout(ctx, s.chatTimeout)
	defer cancel()

	start := time.Now()
	reply, err := s.brain.Chat(ctx, text)

	var (
		msg     Message
		outcome string
	)
	switch {
	case err == nil:
		msg = newMessage(RoleAI, reply.Reply, dedupeSources(reply.Sources))
		outcome = events.OutcomeReplied
		s.logger.Debug("chat replied", "sources", len(msg.Sources), "duration", time.Since(start))
	case errors.Is(err, brain.ErrInvalidResponse):
		msg = newMessage(RoleAI, InvalidReplyText, nil)
		outcome = events.OutcomeInvalid
		s.logger.Warn("chat response invalid", "error", err)
	default:
		msg = newMessage(RoleAI, ChatErrorText, nil)
		outcome = events.OutcomeFailed
		s.logger.Warn("chat request failed", "error", err, "duration", time.Since(start))
	}

	s.state.endChat(msg)

	s.publish(events.SubjectChatSettled, events.ChatSettled{
		SessionID: s.ID().String(),
		MessageID: msg.ID.String(),
		Outcome:   outcome,
		Sources:   msg.Sources,
		Timestamp: msg.CreatedAt,
	})
	return nil
}

// dedupeSources drops repeated entries, keeping the first occurrence of each.
func dedupeSources(sources []string) []string {
	if sources == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
