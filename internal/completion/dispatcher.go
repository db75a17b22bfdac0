// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
)

// CredentialFunc returns the API credential for one request cycle.
type CredentialFunc func() (string, error)

// EnvCredential reads the named environment variable on every call. An
// unset or blank variable is an error.
func EnvCredential(name string) CredentialFunc {
	return func() (string, error) {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return "", fmt.Errorf("%s is not set", name)
		}
		return v, nil
	}
}

// StaticCredential always returns key.
func StaticCredential(key string) CredentialFunc {
	return func() (string, error) {
		if strings.TrimSpace(key) == "" {
			return "", fmt.Errorf("API credential is empty")
		}
		return key, nil
	}
}

// Ticket identifies a dispatched worker.
type Ticket struct {
	WorkerID string
	Seq      uint64
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher starts one Worker goroutine per request. Dispatch never blocks
// the caller: concurrency limits and rate limits are waited on inside the
// worker goroutine.
type Dispatcher struct {
	completer  Completer
	params     cloud.Params
	credential CredentialFunc
	out        *handoff.Channel[Result]

	logger   *slog.Logger
	timeout  time.Duration
	sem      *semaphore.Weighted // nil = unbounded
	limiter  *rate.Limiter       // nil = unlimited
	maxSlots int

	seq      atomic.Uint64
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxInFlight bounds the number of concurrent requests. n <= 0 means
// unbounded (the default); 1 serializes requests.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(int64(n))
			d.maxSlots = n
		}
	}
}

// WithRateLimit caps requests per minute with a token bucket. perMinute <= 0
// means unlimited (the default).
func WithRateLimit(perMinute int) Option {
	return func(d *Dispatcher) {
		if perMinute > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		}
	}
}

// WithTimeout sets a per-request deadline. Zero means none beyond the
// HTTP client's own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher that publishes results to out.
func NewDispatcher(c Completer, params cloud.Params, credential CredentialFunc, out *handoff.Channel[Result], opts ...Option) *Dispatcher {
	d := &Dispatcher{
		completer:  c,
		params:     params,
		credential: credential,
		out:        out,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxInFlight returns the concurrency bound, or 0 when unbounded.
func (d *Dispatcher) MaxInFlight() int {
	return d.maxSlots
}

// Dispatch starts a worker for snapshot and returns immediately. The
// snapshot must be a private copy; the worker reads it from another
// goroutine.
func (d *Dispatcher) Dispatch(snapshot []model.Message) Ticket {
	w := &Worker{
		ID:       uuid.NewString(),
		Seq:      d.seq.Add(1),
		Snapshot: snapshot,
		Params:   d.params,
	}

	d.inFlight.Add(1)
	d.wg.Add(1)
	d.logger.Debug("dispatch", "worker", w.ID, "seq", w.Seq, "messages", len(snapshot))

	go d.run(w)

	return Ticket{WorkerID: w.ID, Seq: w.Seq}
}

// run executes w on the current (background) goroutine.
func (d *Dispatcher) run(w *Worker) {
	defer d.wg.Done()
	defer d.inFlight.Add(-1)

	ctx := context.Background()

	if d.sem != nil {
		// Background context: acquisition cannot fail.
		_ = d.sem.Acquire(ctx, 1)
		defer d.sem.Release(1)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.Warn("rate limiter wait failed", "worker", w.ID, "error", err)
		}
	}

	if d.credential != nil {
		w.Credential, w.CredentialErr = d.credential()
	} else {
		w.CredentialErr = fmt.Errorf("no credential source configured")
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	w.Run(ctx, d.completer, d.out, d.logger)
}

// InFlight returns the number of dispatched workers that have not yet
// published their result.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Wait blocks until every dispatched worker has published. Interactive
// harnesses never call it; shutdown abandons in-flight workers.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
