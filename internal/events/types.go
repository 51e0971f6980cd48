package events

import "time"

const (
	// SubjectChatSettled is published once per chat turn after its outcome is known.
	SubjectChatSettled = "secondbrain.chat.settled"
	// SubjectUploadSettled is published once per upload attempt after it settles.
	SubjectUploadSettled = "secondbrain.upload.settled"
	// SubjectChatSubmit carries chat messages submitted from the bus.
	SubjectChatSubmit = "secondbrain.chat.submit"
	// SubjectRegistered announces a serving client.
	SubjectRegistered = "secondbrain.client.registered"
)

// Outcome values for settled events.
const (
	OutcomeReplied = "replied"
	OutcomeStarted = "started"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
)

type ChatSettled struct {
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Outcome   string    `json:"outcome"`
	Sources   []string  `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type UploadSettled struct {
	SessionID  string    `json:"session_id"`
	FileName   string    `json:"file_name"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	Status     string    `json:"status"`
	Superseded bool      `json:"superseded,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatSubmit struct {
	Message string `json:"message"`
}

type Registered struct {
	SessionID string `json:"session_id"`
	Port      int    `json:"port"`
	BaseURL   string `json:"base_url"`
	Timestamp string `json:"timestamp"`
}
