package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/Aman-CERP/dbadvisor/internal/advisor"
	"github.com/Aman-CERP/dbadvisor/internal/ui"
)

var (
	_ advisor.Sink = (*Collector)(nil)
	_ advisor.Sink = (*JSONSink)(nil)
	_ advisor.Sink = (*TextSink)(nil)
)

var (
	// ErrNotFramed is returned by Add or End outside a Begin/End frame.
	ErrNotFramed = errors.New("advisory emitted outside the message region")

	// ErrAlreadyFramed is returned by Begin inside an open frame.
	ErrAlreadyFramed = errors.New("message region already open")
)

// Pass summary statuses, from best to worst.
const (
	StatusClean    = "clean"
	StatusNotices  = "notices"
	StatusWarnings = "warnings"
	StatusErrors   = "errors"
)

// Counts of advisories per severity.
type Counts struct {
	Notice  int `json:"notice"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// CountOf tallies advs by severity.
func CountOf(advs []advisor.Advisory) Counts {
	var c Counts
	for _, a := range advs {
		switch a.Severity {
		case advisor.Error:
			c.Error++
		case advisor.Warning:
			c.Warning++
		default:
			c.Notice++
		}
	}
	return c
}

// Status returns the summary status: the worst severity present, or clean.
func Status(advs []advisor.Advisory) string {
	c := CountOf(advs)
	switch {
	case c.Error > 0:
		return StatusErrors
	case c.Warning > 0:
		return StatusWarnings
	case c.Notice > 0:
		return StatusNotices
	default:
		return StatusClean
	}
}

// Document is the machine-readable form of a pass.
type Document struct {
	RunID      string             `json:"run_id"`
	Status     string             `json:"status"`
	Advisories []advisor.Advisory `json:"advisories"`
	Counts     Counts             `json:"counts"`
}

// NewDocument builds the Document for advs under a fresh run id.
func NewDocument(advs []advisor.Advisory) Document {
	if advs == nil {
		advs = []advisor.Advisory{}
	}
	return Document{
		RunID:      uuid.NewString(),
		Status:     Status(advs),
		Advisories: advs,
		Counts:     CountOf(advs),
	}
}

// frame tracks Begin/End and buffers the advisories in between.
type frame struct {
	open bool
	advs []advisor.Advisory
}

func (f *frame) begin() error {
	if f.open {
		return ErrAlreadyFramed
	}
	f.open = true
	f.advs = f.advs[:0]
	return nil
}

func (f *frame) add(a advisor.Advisory) error {
	if !f.open {
		return ErrNotFramed
	}
	f.advs = append(f.advs, a)
	return nil
}

func (f *frame) end() error {
	if !f.open {
		return ErrNotFramed
	}
	f.open = false
	return nil
}

// Collector keeps the advisories of the last completed frame in memory.
type Collector struct {
	frame
	done []advisor.Advisory
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// Begin implements advisor.Sink.
func (c *Collector) Begin() error { return c.begin() }

// Add implements advisor.Sink.
func (c *Collector) Add(a advisor.Advisory) error { return c.add(a) }

// End implements advisor.Sink.
func (c *Collector) End() error {
	if err := c.end(); err != nil {
		return err
	}
	c.done = append([]advisor.Advisory{}, c.advs...)
	return nil
}

// Advisories returns the advisories of the last completed frame.
func (c *Collector) Advisories() []advisor.Advisory { return c.done }

// JSONSink writes one Document per frame.
type JSONSink struct {
	frame
	out    io.Writer
	indent bool
	runID  string
}

// NewJSONSink returns a JSONSink writing to out.
func NewJSONSink(out io.Writer, indent bool) *JSONSink {
	return &JSONSink{out: out, indent: indent}
}

// RunID returns the id of the last written document.
func (s *JSONSink) RunID() string { return s.runID }

// Begin implements advisor.Sink.
func (s *JSONSink) Begin() error { return s.begin() }

// Add implements advisor.Sink.
func (s *JSONSink) Add(a advisor.Advisory) error { return s.add(a) }

// End implements advisor.Sink and writes the document.
func (s *JSONSink) End() error {
	if err := s.end(); err != nil {
		return err
	}

	doc := NewDocument(append([]advisor.Advisory{}, s.advs...))
	s.runID = doc.RunID

	enc := json.NewEncoder(s.out)
	if s.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

// TextSink writes advisories for people, grouped by severity with errors
// first. Order within a group is the pass order.
type TextSink struct {
	frame
	out    io.Writer
	styles ui.Styles
}

// NewTextSink returns a TextSink writing to out, coloured when color is set.
func NewTextSink(out io.Writer, color bool) *TextSink {
	return &TextSink{out: out, styles: ui.GetStyles(!color)}
}

// Begin implements advisor.Sink.
func (s *TextSink) Begin() error { return s.begin() }

// Add implements advisor.Sink.
func (s *TextSink) Add(a advisor.Advisory) error { return s.add(a) }

// End implements advisor.Sink and writes the grouped advisories.
func (s *TextSink) End() error {
	if err := s.end(); err != nil {
		return err
	}

	var b strings.Builder
	if len(s.advs) == 0 {
		fmt.Fprintf(&b, "%s %s\n", IconSuccess, s.styles.Success.Render("No issues detected."))
		_, err := io.WriteString(s.out, b.String())
		return err
	}

	groups := []struct {
		severity advisor.Severity
		heading  string
		icon     string
		style    lipgloss.Style
	}{
		{advisor.Error, "Errors", IconError, s.styles.Error},
		{advisor.Warning, "Warnings", IconWarning, s.styles.Warning},
		{advisor.Notice, "Notices", IconNotice, s.styles.Notice},
	}

	first := true
	for _, g := range groups {
		var members []advisor.Advisory
		for _, a := range s.advs {
			if a.Severity == g.severity {
				members = append(members, a)
			}
		}
		if len(members) == 0 {
			continue
		}

		if !first {
			b.WriteString("\n")
		}
		first = false

		fmt.Fprintf(&b, "%s\n", g.style.Render(fmt.Sprintf("%s (%d)", g.heading, len(members))))
		for _, a := range members {
			fmt.Fprintf(&b, "  %s %s %s\n", g.icon, s.styles.Title.Render(a.Title), s.styles.Label.Render("["+a.Key+"]"))
			fmt.Fprintf(&b, "%s\n", s.styles.Body.Render(a.Body))
		}
	}

	c := CountOf(s.advs)
	fmt.Fprintf(&b, "\n%s\n", s.styles.Dim.Render(
		fmt.Sprintf("%d error(s), %d warning(s), %d notice(s)", c.Error, c.Warning, c.Notice)))

	_, err := io.WriteString(s.out, b.String())
	return err
}
