// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/config"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no args starts TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "explicit tui",
			argv:    []string{"tui"},
			wantCmd: CmdTUI,
		},
		{
			name:    "chat with global model flag before command",
			argv:    []string{"--model", "llama-3.3-70b", "chat"},
			wantCmd: CmdChat,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "llama-3.3-70b", a.Model)
			},
		},
		{
			name:    "global flags after command",
			argv:    []string{"chat", "-q", "--config=/tmp/c.yaml"},
			wantCmd: CmdChat,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Quiet)
				assert.Equal(t, "/tmp/c.yaml", a.ConfigPath)
			},
		},
		{
			name:    "ask joins words into the query",
			argv:    []string{"ask", "What", "is", "Go?"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "What is Go?", a.Query)
				assert.False(t, a.Raw)
			},
		},
		{
			name:    "ask raw flag and model equals form",
			argv:    []string{"ask", "--raw", "--model=qwen-3-32b", "Hello"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Raw)
				assert.Equal(t, "qwen-3-32b", a.Model)
				assert.Equal(t, "Hello", a.Query)
			},
		},
		{
			name:    "double dash keeps flag-like words in the query",
			argv:    []string{"ask", "--", "--model", "is", "a", "flag"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Empty(t, a.Model)
				assert.Equal(t, "--model is a flag", a.Query)
			},
		},
		{
			name:    "config defaults to show",
			argv:    []string{"config"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Empty(t, a.Subcommand)
			},
		},
		{
			name:    "config init force",
			argv:    []string{"config", "init", "--force"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "init", a.Subcommand)
				assert.True(t, a.Force)
			},
		},
		{
			name:    "version",
			argv:    []string{"version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help flag",
			argv:    []string{"--help"},
			wantCmd: CmdHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := ParseArgs(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd, "got %s", cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParseArgs_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"model without value", []string{"chat", "--model"}},
		{"config without value", []string{"--config"}},
		{"unknown config subcommand", []string{"config", "set"}},
		{"extra config argument", []string{"config", "show", "extra"}},
		{"chat takes no arguments", []string{"chat", "hello"}},
		{"unknown ask flag", []string{"ask", "--agentic", "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseArgs(tt.argv)
			require.Error(t, err)

			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))
			assert.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "cerechat ask")
	assert.Contains(t, buf.String(), "CERECHAT_MAX_IN_FLIGHT")

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "cerechat "+Version)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Msg: "bad"}, ExitUsageError},
		{"no query", ErrNoQuery, ExitUsageError},
		{"validation", fmt.Errorf("failed to load config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}), ExitConfigError},
		{"bad env", fmt.Errorf("wrapped: %w", config.ErrBadEnv), ExitConfigError},
		{"config exists", fmt.Errorf("%w: /x", ErrConfigExists), ExitConfigError},
		{"missing credential", cloud.NewConfigurationError(errors.New("CEREBRAS_API_KEY is not set")), ExitConfigError},
		{"transport", cloud.NewTransportError(errors.New("connection refused")), ExitNetworkError},
		{"protocol", &cloud.Error{Kind: cloud.KindProtocol, Status: 503}, ExitGeneralError},
		{"decode", &cloud.Error{Kind: cloud.KindDecode}, ExitGeneralError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, errors.New("something broke"))
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "something broke")

	buf.Reset()
	DisplayError(&buf, nil)
	assert.Empty(t, buf.String())
}
