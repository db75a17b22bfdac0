// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for
// cerechat.
//
// # Key Types
//
//   - Command: the command to run
//   - Args: parsed global and command-specific flags
//   - Runtime: effective config, completion client and credential source
//   - Repl: the line-mode chat loop
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	}
//
// # Commands
//
//   - tui (default): full-screen chat
//   - chat: line-mode chat with history
//   - ask: single question, from arguments or stdin
//   - config: show, path, init
//   - version, help
//
// Handlers return errors; GetExitCode maps them to exit codes.
package cli
