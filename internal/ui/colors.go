package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles is the default palette used by the CLI commands.
var Styles = NewPalette("#5F87FF", "#04B575", "#FF5F5F", "#FFAF00", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
type Palette struct {
	Title lipgloss.Style
	OK    lipgloss.Style
	Err   lipgloss.Style
	Warn  lipgloss.Style
	Dim   lipgloss.Style
}

// NewPalette builds a palette from foreground colors for title, success,
// error, warning and de-emphasized text.
func NewPalette(t, s, e, w, d string) *Palette {
	return &Palette{
		Title: NewBold(t).MarginBottom(1),
		OK:    NewBold(s),
		Err:   NewBold(e),
		Warn:  NewStyle(w),
		Dim:   NewEm(d),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
