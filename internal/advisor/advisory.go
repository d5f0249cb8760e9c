package advisor

import "fmt"

// Severity of an advisory.
type Severity int

const (
	// Notice is informational.
	Notice Severity = iota
	// Warning means degraded but functional.
	Warning
	// Error means some functionality is broken.
	Error
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "notice"
	}
}

// ParseSeverity is the inverse of String.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "notice":
		return Notice, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Notice, fmt.Errorf("unknown severity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Advisory is one configuration finding.
type Advisory struct {
	Severity Severity `json:"severity"`

	// Key identifies the check that produced the advisory. Consumers use it
	// for deduplication and anchoring.
	Key string `json:"key"`

	// Field is the configuration path the advisory refers to.
	Field string `json:"field"`

	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sink receives the advisories of a pass between Begin and End.
type Sink interface {
	Begin() error
	Add(Advisory) error
	End() error
}
