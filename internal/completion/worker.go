// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion runs chat completions off the interactive goroutine.
//
// A Worker turns one conversation snapshot into exactly one Result and
// publishes it to a hand-off channel. It never touches the conversation log
// or any UI state, never retries, and never holds a lock across network
// I/O. The Dispatcher starts one goroutine per Worker.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
)

// Completer performs one blocking completion round trip.
// *cloud.Client implements it.
type Completer interface {
	Complete(ctx context.Context, credential string, params cloud.Params, messages []cloud.ChatMessage) (string, error)
}

// Result is the single outcome of a Worker: a reply on success, or a
// tagged failure in Err.
type Result struct {
	WorkerID string
	Seq      uint64
	Reply    string
	Err      error
	Duration time.Duration
}

// OK reports whether the result carries a reply.
func (r Result) OK() bool {
	return r.Err == nil
}

// Worker is one background request/response cycle.
type Worker struct {
	ID         string
	Seq        uint64
	Snapshot   []model.Message
	Params     cloud.Params
	Credential string

	// CredentialErr is set when the credential could not be obtained. The
	// worker then publishes a configuration failure without a request.
	CredentialErr error
}

// Run performs the request and publishes exactly one Result to out.
// A panic inside the Completer is recovered into a transport failure so the
// one-result guarantee holds.
func (w *Worker) Run(ctx context.Context, c Completer, out *handoff.Channel[Result], logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	start := time.Now()
	res := Result{WorkerID: w.ID, Seq: w.Seq}

	defer func() {
		if p := recover(); p != nil {
			res.Reply = ""
			res.Err = cloud.NewTransportError(fmt.Errorf("completer panicked: %v", p))
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			logger.Warn("completion failed",
				"worker", w.ID, "seq", w.Seq,
				"kind", cloud.KindOf(res.Err).String(),
				"error", res.Err, "duration", res.Duration)
		} else {
			logger.Info("completion done",
				"worker", w.ID, "seq", w.Seq,
				"reply_len", len(res.Reply), "duration", res.Duration)
		}
		if !out.Publish(res) {
			logger.Debug("hand-off closed, result abandoned", "worker", w.ID, "seq", w.Seq)
		}
	}()

	if w.CredentialErr != nil {
		res.Err = asConfigurationError(w.CredentialErr)
		return
	}

	reply, err := c.Complete(ctx, w.Credential, w.Params, cloud.MessagesFrom(w.Snapshot))
	if err != nil {
		res.Err = classify(err)
		return
	}
	res.Reply = reply
}

// asConfigurationError tags err as a configuration failure unless it
// already carries a kind.
func asConfigurationError(err error) error {
	if cloud.KindOf(err) != 0 {
		return err
	}
	return cloud.NewConfigurationError(err)
}

// classify makes sure every failure leaving a worker is a tagged
// *cloud.Error. Untagged errors from a Completer (including context
// deadlines) are transport failures.
func classify(err error) error {
	if cloud.KindOf(err) != 0 {
		return err
	}
	return cloud.NewTransportError(err)
}
