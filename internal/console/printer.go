package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/MikeSquared-Agency/secondbrain/internal/session"
)

const (
	userLabel = "you   › "
	aiLabel   = "brain › "
	indent    = "        "
)

// Printer renders session state as terminal lines.
type Printer struct {
	out io.Writer

	user   *color.Color
	ai     *color.Color
	source *color.Color
	ok     *color.Color
	fail   *color.Color
	dim    *color.Color
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		user:   color.New(color.FgCyan, color.Bold),
		ai:     color.New(color.FgMagenta, color.Bold),
		source: color.New(color.FgHiBlack),
		ok:     color.New(color.FgGreen),
		fail:   color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
}

// SetColor forces colour output on or off regardless of terminal detection.
func (p *Printer) SetColor(enabled bool) {
	for _, c := range []*color.Color{p.user, p.ai, p.source, p.ok, p.fail, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Message prints one turn. Continuation lines are indented under the label.
func (p *Printer) Message(m session.Message) {
	label, c := aiLabel, p.ai
	if m.Role == session.RoleUser {
		label, c = userLabel, p.user
	}
	c.Fprint(p.out, label)
	fmt.Fprintln(p.out, strings.ReplaceAll(m.Content, "\n", "\n"+indent))
	if len(m.Sources) > 0 {
		p.source.Fprintf(p.out, "%ssources: %s\n", indent, strings.Join(m.Sources, ", "))
	}
}

// UploadStatus prints the status line, red for failures and green otherwise.
func (p *Printer) UploadStatus(status string) {
	if status == "" {
		return
	}
	if session.UploadFailed(status) {
		p.fail.Fprintln(p.out, status)
		return
	}
	p.ok.Fprintln(p.out, status)
}

func (p *Printer) Thinking() {
	p.dim.Fprintln(p.out, "Thinking...")
}

func (p *Printer) Notice(format string, args ...any) {
	p.dim.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.fail.Fprintf(p.out, format+"\n", args...)
}
