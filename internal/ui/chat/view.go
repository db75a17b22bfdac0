// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cerechat/internal/util"
)

func (m Model) render() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	const brand = "cerechat"
	title := m.theme.Brand.Render(brand)

	var info []string
	if m.modelName != "" {
		info = append(info, m.modelName)
	}
	if host := endpointHost(m.endpoint); host != "" {
		info = append(info, host)
	}
	subtitle := ""
	if len(info) > 0 {
		// Header padding takes two columns.
		room := m.width - 2 - util.StringWidth(brand)
		subtitle = m.theme.Subtitle.Render(util.TruncateWidth(" | "+strings.Join(info, " @ "), room))
	}

	return m.theme.Header.Width(m.width).Render(title + subtitle)
}

func (m Model) renderInput() string {
	sep := m.theme.Separator.Render(strings.Repeat("─", max(m.width, 1)))
	return sep + "\n" + m.input.View()
}

func (m Model) renderStatusBar() string {
	sep := m.theme.Separator.Render(" | ")

	var state string
	switch pending := m.coordinator.Pending(); {
	case m.closed:
		state = m.theme.Error.Render("disconnected")
	case pending > 0:
		state = m.spinner.View() + m.theme.Pending.Render(fmt.Sprintf(" %d in flight", pending))
	default:
		state = m.theme.Muted.Render("ready")
	}

	stats := m.coordinator.Stats()
	parts := []string{
		state,
		m.theme.Muted.Render(fmt.Sprintf("%d messages", stats.Messages)),
	}
	if stats.Failures > 0 {
		parts = append(parts, m.theme.Error.Render(fmt.Sprintf("%d failed", stats.Failures)))
	}

	var hints []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	parts = append(parts, m.theme.Muted.Render(strings.Join(hints, "  ")))

	line := strings.Join(parts, sep)
	return m.theme.Status.Width(m.width).Render(line)
}

// endpointHost returns the host of a URL for display.
func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
