// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Layout heights outside the viewport.
const (
	headerHeight    = 1
	inputAreaHeight = 2 // separator + input line
	statusBarHeight = 1
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ResultMsg:
		return m.handleResult(msg)

	case ResultsClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		if m.coordinator.Pending() == 0 {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input.Model, cmd = m.input.Model.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := m.width
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight

	const promptLen = 2 // "> "
	inputWidth := m.width - promptLen - 1
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.ready = true
	m.syncViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		if !m.coordinator.OnSubmit(m.input.Value()) {
			return m, nil
		}
		m.syncViewport()
		return m, m.startSpinner()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input.Model, cmd = m.input.Model.Update(msg)
	return m, cmd
}

// handleResult applies a worker result and waits for the next one.
func (m Model) handleResult(msg ResultMsg) (tea.Model, tea.Cmd) {
	m.coordinator.OnResult(msg.Result)
	m.syncViewport()
	if m.results == nil {
		return m, nil
	}
	return m, WaitForResult(m.results)
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// syncViewport pushes new transcript lines into the viewport, wrapped to
// its width. It follows the bottom only when the user was already there.
func (m *Model) syncViewport() {
	width := m.viewport.Width
	if !m.transcript.dirty && m.transcript.wrapWidth == width && m.viewport.TotalLineCount() > 0 {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.Wrapped(width))
	m.transcript.dirty = false
	if atBottom {
		m.viewport.GotoBottom()
	}
}
