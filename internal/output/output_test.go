package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Checking store...")

	// Then: output contains icon and message
	assert.Equal(t, "🔍 Checking store...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")
	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Icons(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		icon  string
		text  string
	}{
		{"success", func(w *Writer) { w.Successf("saved %d", 1) }, IconSuccess, "saved 1"},
		{"warning", func(w *Writer) { w.Warningf("weak %s", "secret") }, IconWarning, "weak secret"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "disk") }, IconError, "failed: disk"},
		{"statusf", func(w *Writer) { w.Statusf("🔑", "key %d bytes", 32) }, "🔑", "key 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))
			assert.Contains(t, buf.String(), tt.icon)
			assert.Contains(t, buf.String(), tt.text)
		})
	}
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("store: /etc/x.yaml\noutput:\n  format: text\n")

	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"  store: /etc/x.yaml", "  output:", "    format: text"}, lines)
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()
	assert.Equal(t, "\n", buf.String())
}
