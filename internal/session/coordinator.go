// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/model"
)

// Dispatcher starts a completion for a snapshot without blocking.
// *completion.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(snapshot []model.Message) completion.Ticket
}

// State is the lifecycle state of one submission.
type State int

const (
	StateIdle State = iota // reply applied or failure surfaced
	StateSent              // awaiting a reply
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	default:
		return "unknown"
	}
}

// Stats summarizes a session.
type Stats struct {
	StartTime time.Time
	Submitted int
	Replies   int
	Failures  int
	Pending   int
	Messages  int
}

// Coordinator owns the transcript and the input for one conversation.
// It is not safe for concurrent use; call it from one goroutine only.
type Coordinator struct {
	conversation *model.Conversation
	renderer     Renderer
	input        Input
	dispatcher   Dispatcher
	logger       *slog.Logger

	// pending maps a dispatch Seq to the time it was sent.
	pending map[uint64]time.Time
	stats   Stats
}

// NewCoordinator creates a coordinator. A nil input is allowed for
// harnesses where the input clears itself.
func NewCoordinator(conv *model.Conversation, renderer Renderer, input Input, dispatcher Dispatcher, logger *slog.Logger) *Coordinator {
	if conv == nil {
		conv = model.NewConversation()
	}
	if input == nil {
		input = nopInput{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		conversation: conv,
		renderer:     renderer,
		input:        input,
		dispatcher:   dispatcher,
		logger:       logger,
		pending:      make(map[uint64]time.Time),
		stats:        Stats{StartTime: time.Now()},
	}
}

// Conversation returns the shared conversation log.
func (c *Coordinator) Conversation() *model.Conversation {
	return c.conversation
}

// OnSubmit handles a user submission. Empty or whitespace-only text is
// ignored and false is returned. Otherwise the user message is appended,
// the input is cleared, the transcript is updated, and a worker is
// dispatched with a snapshot that includes the new message. It returns
// without waiting for the reply.
func (c *Coordinator) OnSubmit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	msg := model.NewUserMessage(text)
	c.conversation.Append(msg)
	c.input.Clear()
	c.renderer.AppendLine(msg.TranscriptLine())

	// The append above happens-before this snapshot.
	ticket := c.dispatcher.Dispatch(c.conversation.Snapshot())
	c.pending[ticket.Seq] = time.Now()
	c.stats.Submitted++

	c.logger.Debug("submitted", "seq", ticket.Seq, "worker", ticket.WorkerID, "message", msg.ID)
	return true
}

// OnResult applies a worker result. It must run on the coordinator's
// goroutine. A reply is appended to the conversation and rendered; a
// failure is rendered as an error line and the conversation is left
// unchanged.
func (c *Coordinator) OnResult(res completion.Result) {
	if _, ok := c.pending[res.Seq]; ok {
		delete(c.pending, res.Seq)
	} else {
		c.logger.Warn("result for unknown submission", "seq", res.Seq, "worker", res.WorkerID)
	}

	if res.Err != nil {
		c.stats.Failures++
		c.renderer.AppendLine(ErrorLine(res.Err))
		return
	}

	msg := model.NewAssistantMessage(res.Reply)
	c.conversation.Append(msg)
	c.stats.Replies++
	c.renderer.AppendLine(msg.TranscriptLine())
}

// State returns the state of the submission with the given sequence.
func (c *Coordinator) State(seq uint64) State {
	if _, ok := c.pending[seq]; ok {
		return StateSent
	}
	return StateIdle
}

// Pending returns the number of submissions awaiting a reply.
func (c *Coordinator) Pending() int {
	return len(c.pending)
}

// Stats returns a copy of the session statistics.
func (c *Coordinator) Stats() Stats {
	s := c.stats
	s.Pending = len(c.pending)
	s.Messages = c.conversation.Len()
	return s
}

// ErrorLine formats a failure for the transcript.
func ErrorLine(err error) string {
	return "Error: " + err.Error()
}

// IsErrorLine reports whether a transcript line was produced by ErrorLine.
func IsErrorLine(line string) bool {
	return strings.HasPrefix(line, "Error: ")
}
