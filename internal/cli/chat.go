// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for cerechat.
//
// Command: chat
// Short:   Start an interactive chat session without the full-screen UI
//
// Examples:
//   cerechat chat                        Start chatting with the default model
//   cerechat --model llama-3.3-70b chat  Use a specific model
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /history            Show the conversation so far
//   /status, /s         Show requests in flight and message count
//   /quit, /q, /exit    Exit chat
//   exit, quit          Exit chat
//   Ctrl+C              Exit chat
//   Ctrl+D              Wait for pending replies, then exit
//
// Replies print as they arrive; the prompt stays available while requests
// are in flight.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/config"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
	"github.com/jeranaias/cerechat/internal/session"
	"github.com/jeranaias/cerechat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of user input. io.EOF ends the session after
// pending replies arrive; ErrInputAborted ends it immediately.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ErrInputAborted is returned by a LineReader when the user presses Ctrl+C.
var ErrInputAborted = errors.New("input aborted")

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a liner-backed reader with history loaded from the
// config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line with the given prompt. Arrow keys navigate history.
func (c *ChatCLI) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrInputAborted
		}
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history owner-only.
func (c *ChatCLI) SaveHistory() error {
	if c.historyFile == "" {
		return nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	var b strings.Builder
	if _, err := c.line.WriteHistory(&b); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return util.AtomicWriteFile(c.historyFile, []byte(b.String()), 0600)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	saveErr := c.SaveHistory()
	if err := c.line.Close(); err != nil {
		return err
	}
	return saveErr
}

// =============================================================================
// REPL
// =============================================================================

// replRenderer is the coordinator's Renderer for line mode. The user's own
// line is already on screen, so only replies and failures are printed.
type replRenderer struct {
	out         io.Writer
	markdown    *glamour.TermRenderer
	interactive bool
}

func (r *replRenderer) AppendLine(line string) {
	const youPrefix = "You: "
	const assistantPrefix = "Assistant: "

	if r.interactive {
		// Clear the prompt line the reader may be showing
		fmt.Fprint(r.out, "\r\033[K")
	}

	switch {
	case strings.HasPrefix(line, youPrefix):
		return
	case strings.HasPrefix(line, assistantPrefix):
		reply := strings.TrimPrefix(line, assistantPrefix)
		if r.markdown != nil {
			fmt.Fprintln(r.out, AssistantStyle.Render("Assistant:"))
			fmt.Fprintln(r.out, renderMarkdown(r.markdown, reply))
			return
		}
		fmt.Fprintf(r.out, "%s %s\n", AssistantStyle.Render("Assistant:"), reply)
	case session.IsErrorLine(line):
		fmt.Fprintln(r.out, ErrorStyle.Render(line))
	default:
		fmt.Fprintln(r.out, line)
	}
}

// Repl runs the line-mode chat loop.
type Repl struct {
	out         io.Writer
	reader      LineReader
	results     *handoff.Channel[completion.Result]
	coordinator *session.Coordinator
	renderer    *replRenderer
	modelName   string
	quiet       bool
}

// ReplOptions configures a Repl.
type ReplOptions struct {
	Out          io.Writer
	Reader       LineReader
	Conversation *model.Conversation
	Dispatcher   session.Dispatcher
	Results      *handoff.Channel[completion.Result]
	Runtime      *Runtime

	// Markdown renders replies with glamour; nil prints plain text.
	Markdown *glamour.TermRenderer

	// Interactive clears the prompt line before printing a reply.
	Interactive bool
	Quiet       bool
}

// NewRepl creates a Repl.
func NewRepl(opts ReplOptions) *Repl {
	r := &Repl{
		out:     opts.Out,
		reader:  opts.Reader,
		results: opts.Results,
		quiet:   opts.Quiet,
		renderer: &replRenderer{
			out:         opts.Out,
			markdown:    opts.Markdown,
			interactive: opts.Interactive,
		},
	}
	logger := opts.Runtime.Logger
	r.modelName = opts.Runtime.Config.Provider.Model
	r.coordinator = session.NewCoordinator(opts.Conversation, r.renderer, nil, opts.Dispatcher, logger)
	return r
}

// Coordinator returns the session coordinator.
func (r *Repl) Coordinator() *session.Coordinator {
	return r.coordinator
}

type lineEvent struct {
	text string
	err  error
}

// Run reads lines until the user quits, input ends or ctx is cancelled.
// Replies are applied on this goroutine as they arrive.
func (r *Repl) Run(ctx context.Context) error {
	if !r.quiet {
		r.printWelcome()
	}

	lines := make(chan lineEvent)
	next := make(chan struct{})
	defer close(next)

	// The reader prompts again only after the previous line is handled.
	go func() {
		for {
			text, err := r.reader.ReadLine(PromptStyle.Render("You: "))
			select {
			case lines <- lineEvent{text: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			if _, ok := <-next; !ok {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-lines:
			if ev.err != nil {
				if errors.Is(ev.err, io.EOF) {
					r.waitPending(ctx)
				} else if !errors.Is(ev.err, ErrInputAborted) {
					return fmt.Errorf("failed to read input: %w", ev.err)
				}
				r.printGoodbye()
				return nil
			}
			if r.handleLine(ev.text) {
				r.printGoodbye()
				return nil
			}
			next <- struct{}{}

		case <-r.results.Ready():
			for _, res := range r.results.Drain() {
				r.coordinator.OnResult(res)
			}

		case <-ctx.Done():
			r.printGoodbye()
			return nil
		}
	}
}

// handleLine processes one input line. It returns true to quit.
func (r *Repl) handleLine(text string) bool {
	trimmed := strings.TrimSpace(text)
	switch strings.ToLower(trimmed) {
	case "":
		return false
	case "exit", "quit":
		return true
	}

	if strings.HasPrefix(trimmed, "/") {
		return r.handleSlashCommand(trimmed)
	}

	r.coordinator.OnSubmit(text)
	return false
}

// handleSlashCommand runs a /command. It returns true to quit.
func (r *Repl) handleSlashCommand(input string) bool {
	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?":
		r.printHelp()
	case "/history":
		r.printHistory()
	case "/status", "/s":
		r.printStatus()
	case "/quit", "/q", "/exit":
		return true
	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("?"), parts[0])
	}
	return false
}

// waitPending applies replies until none are outstanding.
func (r *Repl) waitPending(ctx context.Context) {
	if n := r.coordinator.Pending(); n > 0 && !r.quiet {
		fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("Waiting for %d pending %s...", n, plural(n, "reply", "replies"))))
	}
	for r.coordinator.Pending() > 0 {
		res, ok := r.results.Next(ctx)
		if !ok {
			return
		}
		r.coordinator.OnResult(res)
	}
}

func (r *Repl) printWelcome() {
	fmt.Fprintln(r.out, TitleStyle.Render("cerechat interactive chat"))
	fmt.Fprintln(r.out, RenderSeparator(30))
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), r.modelName)
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, exit to quit."))
	fmt.Fprintln(r.out)
}

func (r *Repl) printGoodbye() {
	fmt.Fprintln(r.out, "Goodbye")
}

func (r *Repl) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	fmt.Fprintf(r.out, "  %-18s %s\n", "/help, /h", "Show this help")
	fmt.Fprintf(r.out, "  %-18s %s\n", "/history", "Show the conversation so far")
	fmt.Fprintf(r.out, "  %-18s %s\n", "/status, /s", "Show requests in flight")
	fmt.Fprintf(r.out, "  %-18s %s\n", "/quit, /q, exit", "Exit chat")
}

func (r *Repl) printHistory() {
	snapshot := r.coordinator.Conversation().Snapshot()
	if len(snapshot) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet."))
		return
	}
	width := GetTerminalWidth() - 16
	for i, msg := range snapshot {
		fmt.Fprintf(r.out, "%3d. %s %s\n", i+1, LabelStyle.Render(msg.Role.DisplayName()+":"), msg.Preview(width))
	}
}

func (r *Repl) printStatus() {
	stats := r.coordinator.Stats()
	fmt.Fprintf(r.out, "%s %s\n", LabelStyle.Render("Model:"), r.modelName)
	fmt.Fprintf(r.out, "%s %d\n", LabelStyle.Render("In flight:"), stats.Pending)
	fmt.Fprintf(r.out, "%s %d\n", LabelStyle.Render("Messages:"), stats.Messages)
	fmt.Fprintf(r.out, "%s %d\n", LabelStyle.Render("Failures:"), stats.Failures)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleChat runs the interactive line-mode chat.
func HandleChat(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	rt, err := Setup(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	results := handoff.New[completion.Result]()
	defer results.Close()

	var md *glamour.TermRenderer
	if rt.Config.UI.Markdown && IsStdoutTTY() {
		md = newMarkdownRenderer(GetTerminalWidth())
	}

	reader := NewChatCLI()
	defer reader.Close()

	repl := NewRepl(ReplOptions{
		Out:          os.Stdout,
		Reader:       reader,
		Conversation: model.NewConversation(),
		Dispatcher:   rt.NewDispatcher(results),
		Results:      results,
		Runtime:      rt,
		Markdown:     md,
		Interactive:  true,
		Quiet:        args.Quiet,
	})

	err = repl.Run(ctx)

	stats := repl.Coordinator().Stats()
	rt.Logger.Info("session end",
		"submitted", stats.Submitted,
		"replies", stats.Replies,
		"failures", stats.Failures,
		"abandoned", stats.Pending,
	)
	return err
}
