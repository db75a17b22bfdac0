// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/handoff"
)

// ResultMsg delivers one worker result to Update.
type ResultMsg struct {
	Result completion.Result
}

// ResultsClosedMsg signals that the hand-off channel was closed and no
// more results will arrive.
type ResultsClosedMsg struct{}

// WaitForResult returns a command that blocks until the next result is
// handed off. Bubble Tea runs it off the event loop.
func WaitForResult(results *handoff.Channel[completion.Result]) tea.Cmd {
	return func() tea.Msg {
		res, ok := results.Next(context.Background())
		if !ok {
			return ResultsClosedMsg{}
		}
		return ResultMsg{Result: res}
	}
}
