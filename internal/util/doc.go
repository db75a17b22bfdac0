// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the cerechat packages:
// crash-safe file writes for config and history, and display-width aware
// text shaping for terminal output.
package util
