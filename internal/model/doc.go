// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: an immutable role-tagged chat turn
//   - Role: user or assistant
//   - Conversation: the append-only, goroutine-safe conversation log
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("Hello!"))
//	snapshot := conv.Snapshot() // independent copy, safe to hand to a worker
//
// A snapshot is a point-in-time copy. Appends made after Snapshot returns
// are never visible through it.
package model
