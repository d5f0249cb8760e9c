package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/advisor"
)

func sample() []advisor.Advisory {
	return []advisor.Advisory{
		{Severity: advisor.Notice, Key: "Servers/1/ssl", Field: "Servers/1/ssl", Title: "Use SSL (db)", Body: "Use SSL."},
		{Severity: advisor.Error, Key: "LoginCookieValidity", Field: "LoginCookieValidity", Title: "Login cookie validity", Body: "Too long."},
		{Severity: advisor.Notice, Key: "TempDir", Field: "TempDir", Title: "Temporary directory", Body: "Check permissions."},
		{Severity: advisor.Error, Key: "GZipDump", Field: "GZipDump", Title: "GZip", Body: "Missing gz_read."},
	}
}

func emit(t *testing.T, s advisor.Sink, advs []advisor.Advisory) {
	t.Helper()
	require.NoError(t, s.Begin())
	for _, a := range advs {
		require.NoError(t, s.Add(a))
	}
	require.NoError(t, s.End())
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		advs []advisor.Advisory
		want string
	}{
		{"empty", nil, StatusClean},
		{"notices", []advisor.Advisory{{Severity: advisor.Notice}}, StatusNotices},
		{"warnings", []advisor.Advisory{{Severity: advisor.Notice}, {Severity: advisor.Warning}}, StatusWarnings},
		{"errors", sample(), StatusErrors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.advs))
		})
	}
}

func TestCountOf(t *testing.T) {
	assert.Equal(t, Counts{Notice: 2, Error: 2}, CountOf(sample()))
}

func TestFrame_RejectsEmissionOutsideRegion(t *testing.T) {
	c := NewCollector()

	assert.ErrorIs(t, c.Add(advisor.Advisory{Key: "x"}), ErrNotFramed)
	assert.ErrorIs(t, c.End(), ErrNotFramed)

	require.NoError(t, c.Begin())
	assert.ErrorIs(t, c.Begin(), ErrAlreadyFramed)
	require.NoError(t, c.End())
	assert.ErrorIs(t, c.Add(advisor.Advisory{Key: "y"}), ErrNotFramed)
}

func TestCollector_KeepsLastFrame(t *testing.T) {
	c := NewCollector()
	emit(t, c, sample())
	assert.Equal(t, sample(), c.Advisories())

	emit(t, c, sample()[:1])
	assert.Equal(t, sample()[:1], c.Advisories())
}

func TestJSONSink_WritesDocument(t *testing.T) {
	// Given: a JSON sink
	buf := &bytes.Buffer{}
	s := NewJSONSink(buf, false)

	// When: emitting one frame
	emit(t, s, sample())

	// Then: one document with run id, status, advisories in order and counts
	var doc struct {
		RunID      string `json:"run_id"`
		Status     string `json:"status"`
		Advisories []struct {
			Severity string `json:"severity"`
			Key      string `json:"key"`
		} `json:"advisories"`
		Counts Counts `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	_, err := uuid.Parse(doc.RunID)
	assert.NoError(t, err)
	assert.Equal(t, s.RunID(), doc.RunID)
	assert.Equal(t, StatusErrors, doc.Status)
	assert.Equal(t, Counts{Notice: 2, Error: 2}, doc.Counts)
	require.Len(t, doc.Advisories, 4)
	assert.Equal(t, "notice", doc.Advisories[0].Severity)
	assert.Equal(t, "LoginCookieValidity", doc.Advisories[1].Key)
}

func TestJSONSink_EmptyFrame(t *testing.T) {
	buf := &bytes.Buffer{}
	emit(t, NewJSONSink(buf, true), nil)

	assert.Contains(t, buf.String(), `"status": "clean"`)
	assert.Contains(t, buf.String(), `"advisories": []`)
}

func TestJSONSink_NothingWrittenWithoutEnd(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewJSONSink(buf, false)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Add(sample()[0]))

	assert.Empty(t, buf.String())
}

func TestTextSink_GroupsBySeverity(t *testing.T) {
	// Given: a plain text sink
	buf := &bytes.Buffer{}

	// When: emitting mixed severities
	emit(t, NewTextSink(buf, false), sample())

	// Then: errors come first, notices after, order kept within a group
	out := buf.String()
	errIdx := strings.Index(out, "Errors (2)")
	noticeIdx := strings.Index(out, "Notices (2)")
	require.NotEqual(t, -1, errIdx)
	require.NotEqual(t, -1, noticeIdx)
	assert.Less(t, errIdx, noticeIdx)
	assert.NotContains(t, out, "Warnings")

	assert.Less(t, strings.Index(out, "[LoginCookieValidity]"), strings.Index(out, "[GZipDump]"))
	assert.Less(t, strings.Index(out, "[GZipDump]"), strings.Index(out, "[Servers/1/ssl]"))
	assert.Less(t, strings.Index(out, "[Servers/1/ssl]"), strings.Index(out, "[TempDir]"))

	assert.Contains(t, out, "     Too long.")
	assert.Contains(t, out, "2 error(s), 0 warning(s), 2 notice(s)")
}

func TestTextSink_Clean(t *testing.T) {
	buf := &bytes.Buffer{}
	emit(t, NewTextSink(buf, false), nil)
	assert.Equal(t, IconSuccess+" No issues detected.\n", buf.String())
}

func TestNewDocument_NilAdvisories(t *testing.T) {
	doc := NewDocument(nil)
	assert.NotNil(t, doc.Advisories)
	assert.Equal(t, StatusClean, doc.Status)
}
