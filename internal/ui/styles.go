package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. One accent colour plus the severity colours.
const (
	ColorLime     = "154" // accent, clean results
	ColorWhite    = "255" // headers
	ColorGray     = "245" // secondary text, labels
	ColorDarkGray = "238" // separators
	ColorRed      = "196" // errors
	ColorYellow   = "220" // warnings
	ColorCyan     = "117" // notices
)

// Styles holds the styles used to render advisories.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Notice  lipgloss.Style
	Title   lipgloss.Style
	Body    lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns coloured styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorYellow)),
		Notice:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Title:   lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle().PaddingLeft(5),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components for plain output. Layout
// padding is kept.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Notice:  lipgloss.NewStyle(),
		Title:   lipgloss.NewStyle(),
		Body:    lipgloss.NewStyle().PaddingLeft(5),
		Dim:     lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
