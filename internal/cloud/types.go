// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"github.com/jeranaias/cerechat/internal/model"
)

// Default request parameters.
const (
	DefaultModel       = "llama3.1-8b"
	DefaultTemperature = 0.0
	DefaultMaxTokens   = -1 // unconstrained
	DefaultSeed        = 0
	DefaultTopP        = 1.0
)

// Params is the static configuration bundle sent with every request.
// Stream is always false; replies are delivered in a single body.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        int
	TopP        float64
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Seed:        DefaultSeed,
		TopP:        DefaultTopP,
	}
}

// ChatMessage represents a single message in the request body.
type ChatMessage struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: model.RoleUser.String(), Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: model.RoleAssistant.String(), Content: content}
}

// MessagesFrom converts a conversation snapshot to wire messages, oldest
// first.
func MessagesFrom(snapshot []model.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(snapshot))
	for _, msg := range snapshot {
		out = append(out, ChatMessage{Role: msg.Role.String(), Content: msg.Content})
	}
	return out
}

// ChatRequest is the request body for the chat completions endpoint.
// Fields are never omitted: a zero temperature or seed is meaningful.
type ChatRequest struct {
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Seed        int           `json:"seed"`
	TopP        float64       `json:"top_p"`
}

// NewChatRequest builds the request body for params and messages.
func NewChatRequest(params Params, messages []ChatMessage) ChatRequest {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return ChatRequest{
		Model:       params.Model,
		Stream:      false,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Seed:        params.Seed,
		TopP:        params.TopP,
	}
}
