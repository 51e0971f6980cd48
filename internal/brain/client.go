package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrRequestFailed covers transport failures and non-2xx statuses alike.
	ErrRequestFailed = errors.New("brain request failed")
	// ErrInvalidResponse means a 2xx body did not carry the expected fields.
	ErrInvalidResponse = errors.New("brain returned an invalid response")
)

const (
	chatPath   = "/chat"
	uploadPath = "/upload"

	// maxErrorBody bounds how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// Kind is the content classification sent alongside an upload.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

// KindFor classifies a file by name only: a ".pdf" suffix is a PDF, anything
// else is text. The suffix match is case-sensitive.
func KindFor(name string) Kind {
	if strings.HasSuffix(name, ".pdf") {
		return KindPDF
	}
	return KindText
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for the backend rooted at baseURL. Callers bound
// individual requests with their context; the http.Client timeout is only a
// ceiling for requests issued without a deadline.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatReply is a validated chat response. Sources is nil when the backend
// omitted the field or sent null.
type ChatReply struct {
	Reply   string
	Sources []string
}

// UploadAck is a validated upload response.
type UploadAck struct {
	Message string
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply   *string  `json:"reply"`
	Sources []string `json:"sources"`
}

type uploadResponse struct {
	Message *string `json:"message"`
}

// Chat sends one message to the chat endpoint.
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode chat response: %v", ErrInvalidResponse, err)
	}
	if resp.Reply == nil {
		return nil, fmt.Errorf("%w: chat response has no reply", ErrInvalidResponse)
	}

	return &ChatReply{Reply: *resp.Reply, Sources: resp.Sources}, nil
}

// Upload sends a file to the upload endpoint as multipart form data with the
// file under "file" and its classification under "type".
func (c *Client) Upload(ctx context.Context, name string, content io.Reader, kind Kind) (*UploadAck, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.WriteField("type", string(kind)); err != nil {
		return nil, fmt.Errorf("write type field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode upload response: %v", ErrInvalidResponse, err)
	}
	if resp.Message == nil {
		return nil, fmt.Errorf("%w: upload response has no message", ErrInvalidResponse)
	}

	return &UploadAck{Message: *resp.Message}, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrRequestFailed, req.URL.Path, resp.StatusCode, truncate(respBody))
	}
	return respBody, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
