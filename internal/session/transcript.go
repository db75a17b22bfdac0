// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
)

// Renderer is an append-only transcript surface.
type Renderer interface {
	AppendLine(line string)
}

// Input is the text entry the coordinator clears after a submission.
type Input interface {
	Clear()
}

// Transcript is an in-memory append-only Renderer. Each line is joined to
// the existing text with a newline.
type Transcript struct {
	b     strings.Builder
	lines int
}

// AppendLine adds line to the end of the transcript.
func (t *Transcript) AppendLine(line string) {
	if t.lines > 0 {
		t.b.WriteByte('\n')
	}
	t.b.WriteString(line)
	t.lines++
}

// String returns the full rendered text.
func (t *Transcript) String() string {
	return t.b.String()
}

// Lines returns the number of appended lines.
func (t *Transcript) Lines() int {
	return t.lines
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(line string)

// AppendLine implements Renderer.
func (f RendererFunc) AppendLine(line string) {
	f(line)
}

// InputFunc adapts a function to Input.
type InputFunc func()

// Clear implements Input.
func (f InputFunc) Clear() {
	f()
}

// nopInput is used when the harness has no input field to clear.
type nopInput struct{}

func (nopInput) Clear() {}
