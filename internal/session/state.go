package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Greeting opens every session's log.
const Greeting = "Hello! I am your Second Brain. Upload documents to train me, or ask me anything."

// Message is one conversational turn. Messages are never modified once
// appended. Sources is only set on ai messages and nil means "no sources".
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessage(role Role, content string, sources []string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	SessionID    uuid.UUID `json:"session_id"`
	Messages     []Message `json:"messages"`
	Pending      bool      `json:"pending"`
	UploadStatus string    `json:"upload_status,omitempty"`
}

// State is the append-only message log plus the two transient flags.
type State struct {
	id uuid.UUID

	mu           sync.RWMutex
	messages     []Message
	pending      bool
	uploadStatus string
	uploadSeq    uint64
}

// NewState returns a state whose log holds only the greeting.
func NewState() *State {
	s := &State{id: uuid.New()}
	s.messages = append(s.messages, newMessage(RoleAI, Greeting, nil))
	return s
}

func (s *State) ID() uuid.UUID {
	return s.id
}

// AppendMessage adds msg to the end of the log.
func (s *State) AppendMessage(msg Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

func (s *State) SetPending(pending bool) {
	s.mu.Lock()
	s.pending = pending
	s.mu.Unlock()
}

// SetUploadStatus overwrites the upload status; last write wins.
func (s *State) SetUploadStatus(text string) {
	s.mu.Lock()
	s.uploadStatus = text
	s.mu.Unlock()
}

func (s *State) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *State) UploadStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploadStatus
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Snapshot copies the state, including each message's sources.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]Message, len(s.messages))
	for i, m := range s.messages {
		if m.Sources != nil {
			m.Sources = append([]string(nil), m.Sources...)
		}
		msgs[i] = m
	}
	return Snapshot{
		SessionID:    s.id,
		Messages:     msgs,
		Pending:      s.pending,
		UploadStatus: s.uploadStatus,
	}
}

// beginChat appends the user message and raises pending in one step. It
// reports false, leaving the state untouched, if a chat is already pending.
func (s *State) beginChat(user Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return false
	}
	s.messages = append(s.messages, user)
	s.pending = true
	return true
}

// endChat appends the outcome message and clears pending.
func (s *State) endChat(reply Message) {
	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.pending = false
	s.mu.Unlock()
}

// beginUpload marks a new upload attempt in progress and returns its
// sequence number.
func (s *State) beginUpload(status string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadSeq++
	s.uploadStatus = status
	return s.uploadSeq
}

// finishUpload records the outcome of attempt seq. It reports false when a
// newer attempt has started since, in which case the status is left alone.
func (s *State) finishUpload(seq uint64, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.uploadSeq {
		return false
	}
	s.uploadStatus = status
	return true
}
