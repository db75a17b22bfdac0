// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea front end for a cerechat session.

The Model wraps a session.Coordinator. It supplies the coordinator's
Renderer (the scrollable transcript viewport) and Input (the text field),
and turns Bubble Tea events into coordinator calls:

  - Enter calls OnSubmit with the text field's value
  - ResultMsg calls OnResult

Worker results reach the UI through the hand-off channel. WaitForResult
is a tea.Cmd that blocks in Next and returns the result as a ResultMsg;
Bubble Tea then delivers it to Update on the event loop goroutine, which
is the only goroutine that touches the coordinator. Update re-issues
WaitForResult after every result.

# Usage

	results := handoff.New[completion.Result]()
	dispatcher := completion.NewDispatcher(client, params, credential, results)
	m := chat.New(chat.Options{
		Dispatcher: dispatcher,
		Results:    results,
		ModelName:  params.Model,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
