// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command for cerechat.
//
// Command: ask [question...]
// Short:   Ask a single question and print the reply
//
// Examples:
//   cerechat ask "What is a goroutine?"
//   cat notes.txt | cerechat ask
//   cerechat ask --raw "Hello"          Also print the request JSON to stderr
//
// The question is read from stdin when no words are given and stdin is
// not a terminal. The reply is rendered as markdown when stdout is a
// terminal and ui.markdown is on.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
)

// MaxStdinQuestion bounds how much piped input ask reads.
const MaxStdinQuestion = 1024 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// newMarkdownRenderer returns a glamour renderer wrapped to width, or nil
// when it cannot be created.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders content for terminal display. It returns the
// content unchanged if rendering fails.
func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// =============================================================================
// ASK
// =============================================================================

// AskOptions configures a single question.
type AskOptions struct {
	Stdout io.Writer
	Stderr io.Writer

	// Raw prints the request body to Stderr before sending.
	Raw bool

	// Markdown renders the reply with glamour; nil prints plain text.
	Markdown *glamour.TermRenderer
}

// readQuestion returns the question from args or, when stdin is a pipe,
// from stdin.
func readQuestion(query string, stdin io.Reader, stdinIsTTY bool) (string, error) {
	if q := strings.TrimSpace(query); q != "" {
		return q, nil
	}
	if stdinIsTTY || stdin == nil {
		return "", ErrNoQuery
	}

	data, err := io.ReadAll(io.LimitReader(stdin, MaxStdinQuestion+1))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) > MaxStdinQuestion {
		return "", &UsageError{Msg: fmt.Sprintf("stdin question exceeds %d bytes", MaxStdinQuestion)}
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", ErrNoQuery
	}
	return q, nil
}

// Ask sends question as a single user message through a dispatcher and
// waits for the one result. The reply is written to opts.Stdout.
func Ask(ctx context.Context, rt *Runtime, question string, opts AskOptions) (string, error) {
	conv := model.NewConversation()
	conv.Append(model.NewUserMessage(question))
	snapshot := conv.Snapshot()

	if opts.Raw && opts.Stderr != nil {
		body, err := rt.Client.EncodeRequest(rt.Config.Params(), cloud.MessagesFrom(snapshot))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(opts.Stderr, "%s\n", body)
	}

	results := handoff.New[completion.Result]()
	defer results.Close()

	ticket := rt.NewDispatcher(results).Dispatch(snapshot)
	rt.Logger.Debug("ask dispatched", "worker", ticket.WorkerID, "seq", ticket.Seq)

	res, ok := results.Next(ctx)
	if !ok {
		return "", fmt.Errorf("ask cancelled: %w", context.Cause(ctx))
	}
	if res.Err != nil {
		return "", res.Err
	}

	if opts.Stdout != nil {
		fmt.Fprintln(opts.Stdout, renderMarkdown(opts.Markdown, res.Reply))
	}
	return res.Reply, nil
}

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) error {
	question, err := readQuestion(args.Query, os.Stdin, IsTTY())
	if err != nil {
		return err
	}

	rt, err := Setup(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	var md *glamour.TermRenderer
	if rt.Config.UI.Markdown && IsStdoutTTY() {
		md = newMarkdownRenderer(GetTerminalWidth())
	}

	_, err = Ask(context.Background(), rt, question, AskOptions{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Raw:      args.Raw,
		Markdown: md,
	})
	return err
}
