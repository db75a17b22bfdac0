// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"protocol with body", &Error{Kind: KindProtocol, Status: 503, Body: "overloaded"}, "HTTP 503: overloaded"},
		{"protocol without body", &Error{Kind: KindProtocol, Status: 500}, "HTTP 500"},
		{"decode shows body", &Error{Kind: KindDecode, Body: `{"unexpected":true}`, Err: errors.New(`field "choices.0.message.content" not found`)},
			`decode: field "choices.0.message.content" not found (body: {"unexpected":true})`},
		{"decode without body", &Error{Kind: KindDecode, Err: errors.New("empty")}, "decode: empty"},
		{"transport", NewTransportError(errors.New("connection refused")), "transport: connection refused"},
		{"bare kind", &Error{Kind: KindConfiguration}, "configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_LongBodyIsTruncated(t *testing.T) {
	err := &Error{Kind: KindProtocol, Status: 502, Body: strings.Repeat("x", 2*maxErrorBodyDisplay)}
	msg := err.Error()
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.Less(t, len(msg), maxErrorBodyDisplay+20)
}

func TestError_TruncationKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes, so the byte limit falls inside a rune.
	body := "a" + strings.Repeat("é", maxErrorBodyDisplay)
	for _, kind := range []ErrorKind{KindProtocol, KindDecode} {
		msg := (&Error{Kind: kind, Status: 500, Body: body, Err: errors.New("bad")}).Error()
		assert.True(t, utf8.ValidString(msg), "%s message must be valid UTF-8", kind)
		assert.Contains(t, msg, "...")
	}
}
