package session

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/secondbrain/internal/brain"
	"github.com/MikeSquared-Agency/secondbrain/internal/events"
)

const (
	UploadingStatus    = "Uploading..."
	UploadFailedStatus = "Upload failed"
	// UploadStartedPrefix precedes the backend's acknowledgement text.
	UploadStartedPrefix = "Ingestion Started: "
)

// File is a document selected for ingestion.
type File struct {
	Name    string
	Content io.Reader
}

// Upload sends f to the backend and reflects the outcome in the upload
// status. A nil file is ignored. Only the most recent attempt may set the
// final status; an older attempt settling late leaves it alone.
func (s *Session) Upload(ctx context.Context, f *File) {
	if f == nil {
		return
	}
	content := f.Content
	if content == nil {
		content = strings.NewReader("")
	}

	kind := brain.KindFor(f.Name)
	seq := s.state.beginUpload(UploadingStatus)

	ctx, cancel := withTimeout(ctx, s.uploadTimeout)
	defer cancel()

	start := time.Now()
	ack, err := s.brain.Upload(ctx, f.Name, content, kind)

	status := UploadFailedStatus
	outcome := events.OutcomeFailed
	if err != nil {
		s.logger.Warn("upload failed", "file", f.Name, "kind", kind, "error", err)
	} else {
		status = UploadStartedPrefix + ack.Message
		outcome = events.OutcomeStarted
		s.logger.Info("upload accepted", "file", f.Name, "kind", kind, "duration", time.Since(start))
	}

	current := s.state.finishUpload(seq, status)
	if !current {
		s.logger.Debug("upload outcome superseded by a newer attempt", "file", f.Name)
	}

	s.publish(events.SubjectUploadSettled, events.UploadSettled{
		SessionID:  s.ID().String(),
		FileName:   f.Name,
		Kind:       string(kind),
		Outcome:    outcome,
		Status:     status,
		Superseded: !current,
		Timestamp:  time.Now().UTC(),
	})
}

// UploadFailed reports whether status describes a failed upload.
func UploadFailed(status string) bool {
	return strings.Contains(strings.ToLower(status), "failed")
}
