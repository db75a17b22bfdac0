// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen chat (the default command).

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
	"github.com/jeranaias/cerechat/internal/ui/chat"
)

// HandleTUI runs the Bubble Tea chat screen until the user quits.
func HandleTUI(args Args) error {
	if err := RequiresTTY("start the chat screen"); err != nil {
		return err
	}

	rt, err := Setup(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	results := handoff.New[completion.Result]()
	defer results.Close()

	m := chat.New(chat.Options{
		Theme:        rt.Theme,
		Conversation: model.NewConversation(),
		Dispatcher:   rt.NewDispatcher(results),
		Results:      results,
		Logger:       rt.Logger,
		ModelName:    rt.Config.Provider.Model,
		Endpoint:     rt.Config.Provider.Endpoint,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat screen failed: %w", err)
	}

	if fm, ok := final.(chat.Model); ok {
		stats := fm.Coordinator().Stats()
		rt.Logger.Info("session end",
			"submitted", stats.Submitted,
			"replies", stats.Replies,
			"failures", stats.Failures,
			"abandoned", stats.Pending,
		)
	}
	return nil
}
