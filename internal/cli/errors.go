// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Handlers always return errors and never print-and-return-nil. main
// decides how to display them and which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file, settings or credential error
	ExitConfigError = 3
	// ExitNetworkError indicates the provider could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// ErrNoQuery is returned by ask when neither arguments nor stdin supply text.
var ErrNoQuery = &UsageError{Msg: "no question given (pass it as an argument or pipe it on stdin)"}

// ErrConfigExists is returned by config init when the file is already there.
var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

// GetExitCode determines the exit code for an error returned by a handler.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) || errors.Is(err, config.ErrBadEnv) || errors.Is(err, ErrConfigExists) {
		return ExitConfigError
	}

	switch cloud.KindOf(err) {
	case cloud.KindConfiguration:
		return ExitConfigError
	case cloud.KindTransport:
		return ExitNetworkError
	}

	return ExitGeneralError
}

// DisplayError writes err in the standard "Error: ..." format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err.Error())
}
