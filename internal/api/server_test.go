package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/secondbrain/internal/brain"
	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

// newBackend fakes the Second Brain service.
func newBackend(t *testing.T, chat, upload http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if chat != nil {
		mux.HandleFunc("/chat", chat)
	}
	if upload != nil {
		mux.HandleFunc("/upload", upload)
	}
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	return backend
}

func newTestServer(t *testing.T, token string, backend *httptest.Server) *Server {
	t.Helper()
	sess := session.New(brain.NewClient(backend.URL), session.Options{})
	return NewServer(8760, token, sess)
}

func decodeSnapshot(t *testing.T, body io.Reader) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	return snap
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w.Body)
	if len(snap.Messages) != 1 || snap.Messages[0].Content != session.Greeting {
		t.Errorf("expected greeting only, got %+v", snap.Messages)
	}
	if snap.Pending {
		t.Error("expected pending false")
	}
}

func TestSendMessage(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["message"] != "what is in my notes?" {
			t.Errorf("unexpected message %q", req["message"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"reply":   "Three notes about Go.",
			"sources": []string{"go.pdf", "go.pdf", "notes.txt"},
		})
	}, nil)
	srv := newTestServer(t, "", backend)

	req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{"message":"what is in my notes?"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	snap := decodeSnapshot(t, w.Body)
	if len(snap.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(snap.Messages))
	}
	ai := snap.Messages[2]
	if ai.Role != session.RoleAI || ai.Content != "Three notes about Go." {
		t.Errorf("unexpected ai message %+v", ai)
	}
	if strings.Join(ai.Sources, ",") != "go.pdf,notes.txt" {
		t.Errorf("expected de-duplicated sources, got %v", ai.Sources)
	}
}

func TestSendMessage_BackendDown(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)
	srv := newTestServer(t, "", backend)

	req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w.Body)
	if got := snap.Messages[len(snap.Messages)-1].Content; got != session.ChatErrorText {
		t.Errorf("expected error turn, got %q", got)
	}
}

func TestSendMessage_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{nope`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSendMessage_Blank(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{"message":"   "}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if snap := decodeSnapshot(t, w.Body); len(snap.Messages) != 1 {
		t.Errorf("expected no new messages, got %d", len(snap.Messages))
	}
}

func TestSendMessage_Busy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode(map[string]any{"reply": "done", "sources": []string{}})
	}, nil)
	srv := newTestServer(t, "", backend)

	first := make(chan int, 1)
	go func() {
		req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{"message":"first"}`))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		first <- w.Code
	}()
	<-started

	req := httptest.NewRequest("POST", "/api/v1/messages", strings.NewReader(`{"message":"second"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 while pending, got %d", w.Code)
	}

	close(release)
	if code := <-first; code != http.StatusOK {
		t.Errorf("expected first request to succeed, got %d", code)
	}
}

func TestUpload(t *testing.T) {
	backend := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("backend failed to parse form: %v", err)
		}
		if r.FormValue("type") != "pdf" {
			t.Errorf("expected type pdf, got %q", r.FormValue("type"))
		}
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("backend missing file: %v", err)
		} else if hdr.Filename != "paper.pdf" {
			t.Errorf("expected file name paper.pdf, got %q", hdr.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "File processed and indexed successfully"})
	})
	srv := newTestServer(t, "", backend)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "paper.pdf")
	part.Write([]byte("%PDF-1.7"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	snap := decodeSnapshot(t, w.Body)
	if snap.UploadStatus != "Ingestion Started: File processed and indexed successfully" {
		t.Errorf("unexpected upload status %q", snap.UploadStatus)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("type", "text")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpload_InvalidFileName(t *testing.T) {
	backend := newBackend(t, nil, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an invalid file name")
	})
	srv := newTestServer(t, "", backend)

	for _, name := range []string{"", ".", "..", "/", "dir/.."} {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("file", name)
		part.Write([]byte("text"))
		mw.Close()

		req := httptest.NewRequest("POST", "/api/v1/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("file name %q: expected 400, got %d", name, w.Code)
		}
	}
	if got := srv.conv.Snapshot().UploadStatus; got != "" {
		t.Errorf("expected no upload attempt, got status %q", got)
	}
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"paper.pdf", "paper.pdf", true},
		{"dir/notes.txt", "notes.txt", true},
		{"", "", false},
		{"  ", "", false},
		{".", "", false},
		{"..", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		got, ok := uploadName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("uploadName(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, "brain-secret", newBackend(t, nil, nil))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic brain-secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer brain-secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	// Health stays open.
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t, "", newBackend(t, nil, nil))

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
