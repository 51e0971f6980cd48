// Package console is a line-oriented terminal front end for a session.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

const helpText = `Type a question and press enter.
  /upload <path>   ingest a PDF or text file
  /status          show the latest upload status
  /help            show this help
  /quit            leave`

// Conversation is the session the console drives.
type Conversation interface {
	Send(ctx context.Context, text string) error
	Upload(ctx context.Context, f *session.File)
	Snapshot() session.Snapshot
}

type Console struct {
	conv    Conversation
	in      io.Reader
	printer *Printer

	// shown counts the log entries already printed.
	shown int
}

func New(conv Conversation, in io.Reader, printer *Printer) *Console {
	return &Console{conv: conv, in: in, printer: printer}
}

// Run reads commands until EOF, /quit or ctx is done. A blocked read does
// not delay returning once ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.flush()

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines, readErr := c.readLines(readCtx)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			line = l
		}

		cmd := strings.TrimSpace(line)
		switch {
		case cmd == "/quit" || cmd == "/exit":
			return nil
		case cmd == "/help":
			c.printer.Notice("%s", helpText)
		case cmd == "/status":
			status := c.conv.Snapshot().UploadStatus
			if status == "" {
				c.printer.Notice("no uploads yet")
			} else {
				c.printer.UploadStatus(status)
			}
		case cmd == "/upload" || strings.HasPrefix(cmd, "/upload "):
			path := strings.TrimSpace(strings.TrimPrefix(cmd, "/upload"))
			if path == "" {
				c.printer.Error("usage: /upload <path>")
				continue
			}
			if err := UploadPath(ctx, c.conv, path); err != nil {
				c.printer.Error("%v", err)
				continue
			}
			c.printer.UploadStatus(c.conv.Snapshot().UploadStatus)
		case strings.HasPrefix(cmd, "/"):
			c.printer.Error("unknown command %s, try /help", strings.Fields(cmd)[0])
		default:
			c.ask(ctx, line)
		}
	}
}

// readLines scans input on its own goroutine. The error channel receives the
// scanner error once lines is closed.
func (c *Console) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

func (c *Console) ask(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.printer.Thinking()
	if err := c.conv.Send(ctx, text); err != nil {
		if errors.Is(err, session.ErrBusy) {
			c.printer.Notice("still thinking about the last question")
			return
		}
		c.printer.Error("%v", err)
		return
	}
	c.flush()
}

// flush prints log entries not yet shown.
func (c *Console) flush() {
	msgs := c.conv.Snapshot().Messages
	for _, m := range msgs[min(c.shown, len(msgs)):] {
		c.printer.Message(m)
	}
	c.shown = len(msgs)
}

// UploadPath opens the file at path and uploads it under its base name.
func UploadPath(ctx context.Context, conv Conversation, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	conv.Upload(ctx, &session.File{Name: filepath.Base(path), Content: f})
	return nil
}
