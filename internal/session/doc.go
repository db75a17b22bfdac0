// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the interactive coordinator for a chat session.
//
// The Coordinator is the single owner of the user-visible transcript. It
// must only be used from one goroutine: the UI event loop or the REPL
// loop. Network work happens in completion workers; their results come
// back through a hand-off channel and are applied with OnResult on the
// coordinator's goroutine.
//
// # Flow
//
//	OnSubmit("Hello!")
//	  -> conversation.Append(user) -> input.Clear() -> render "You: Hello!"
//	  -> dispatcher.Dispatch(conversation.Snapshot())   // returns at once
//	... worker publishes Result ...
//	OnResult(res)
//	  -> conversation.Append(assistant) -> render "Assistant: ..."
//	  or render "Error: ..." (nothing appended)
//
// The transcript is append-only: each change adds one line to the text
// already rendered. It is never rebuilt from the conversation.
package session
