// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the lip gloss styles used by the TUI and the REPL.
type Theme struct {
	Header    lipgloss.Style
	Brand     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
	Pending   lipgloss.Style
	Muted     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Background(SurfaceDim).
			Padding(0, 1),
		Brand: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
		Subtitle: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Italic(true),
		User: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
		Assistant: lipgloss.NewStyle().
			Foreground(Purple),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(Rose),
		Status: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),
		Pending: lipgloss.NewStyle().
			Foreground(Amber),
		Muted: lipgloss.NewStyle().
			Foreground(TextMuted),
		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
		Separator: lipgloss.NewStyle().
			Foreground(Overlay),
	}
}

// TranscriptLine styles a transcript line by its "You: ", "Assistant: "
// or "Error: " prefix. Other lines get the body color.
func (t *Theme) TranscriptLine(line string) string {
	for _, p := range []struct {
		prefix string
		style  lipgloss.Style
	}{
		{"You: ", t.User},
		{"Assistant: ", t.Assistant},
		{"Error: ", t.Error},
	} {
		if strings.HasPrefix(line, p.prefix) {
			return p.style.Render(p.prefix) + line[len(p.prefix):]
		}
	}
	return lipgloss.NewStyle().Foreground(TextPrimary).Render(line)
}

// ApplyTheme forces the background mode for "dark" and "light". "auto"
// leaves lip gloss's terminal detection in place.
func ApplyTheme(name string) {
	switch strings.ToLower(name) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// DisableColor renders everything without ANSI color, for NO_COLOR and
// non-terminal output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
