// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrorKind classifies a failed completion.
type ErrorKind int

const (
	// KindConfiguration: missing or empty credential, bad local setup.
	KindConfiguration ErrorKind = iota + 1
	// KindTransport: DNS, TLS, connection, timeout, or body read failure.
	KindTransport
	// KindProtocol: the provider answered with a non-2xx status.
	KindProtocol
	// KindDecode: the body did not match the configured response schema.
	KindDecode
)

// String returns the short name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against an *Error's kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransport     = errors.New("transport error")
	ErrProtocol      = errors.New("protocol error")
	ErrDecode        = errors.New("decode error")
)

// maxErrorBodyDisplay bounds how much of a raw body Error() prints. The
// full body stays available in Error.Body.
const maxErrorBodyDisplay = 512

// Error is a tagged completion failure.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, protocol errors only
	Body   string // raw response body, protocol and decode errors
	Err    error  // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindProtocol:
		body := displayBody(e.Body)
		if body == "" {
			return fmt.Sprintf("HTTP %d", e.Status)
		}
		return fmt.Sprintf("HTTP %d: %s", e.Status, body)
	case KindDecode:
		msg := e.Kind.String()
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		if body := displayBody(e.Body); body != "" {
			msg += " (body: " + body + ")"
		}
		return msg
	default:
		if e.Err == nil {
			return e.Kind.String()
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

// displayBody bounds body to maxErrorBodyDisplay bytes without splitting
// a UTF-8 sequence.
func displayBody(body string) string {
	if len(body) <= maxErrorBodyDisplay {
		return body
	}
	cut := maxErrorBodyDisplay
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrProtocol:
		return e.Kind == KindProtocol
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// NewConfigurationError wraps err as a configuration failure.
func NewConfigurationError(err error) *Error {
	return &Error{Kind: KindConfiguration, Err: err}
}

// NewTransportError wraps err as a transport failure.
func NewTransportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
