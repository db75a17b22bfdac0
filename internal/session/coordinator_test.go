// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cerechat/internal/cloud"
	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
)

// recordingDispatcher captures snapshots without running anything.
type recordingDispatcher struct {
	snapshots [][]model.Message
}

func (r *recordingDispatcher) Dispatch(snapshot []model.Message) completion.Ticket {
	r.snapshots = append(r.snapshots, snapshot)
	seq := uint64(len(r.snapshots))
	return completion.Ticket{WorkerID: fmt.Sprintf("w%d", seq), Seq: seq}
}

type clearCounter struct{ n int }

func (c *clearCounter) Clear() { c.n++ }

func newTestCoordinator() (*Coordinator, *Transcript, *clearCounter, *recordingDispatcher) {
	tr := &Transcript{}
	in := &clearCounter{}
	rd := &recordingDispatcher{}
	return NewCoordinator(model.NewConversation(), tr, in, rd, nil), tr, in, rd
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestOnSubmit_EmptyIsNoop(t *testing.T) {
	c, tr, in, rd := newTestCoordinator()

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.False(t, c.OnSubmit(text))
	}
	assert.Zero(t, c.Conversation().Len())
	assert.Empty(t, rd.snapshots, "no worker may be dispatched")
	assert.Zero(t, tr.Lines())
	assert.Zero(t, in.n)
	assert.Zero(t, c.Pending())
}

func TestOnSubmit_AppendsRendersAndDispatches(t *testing.T) {
	c, tr, in, rd := newTestCoordinator()

	require.True(t, c.OnSubmit("Hello!"))

	assert.Equal(t, 1, c.Conversation().Len())
	assert.Equal(t, 1, in.n, "input must be cleared")
	assert.Equal(t, "You: Hello!", tr.String())
	require.Len(t, rd.snapshots, 1)
	require.Len(t, rd.snapshots[0], 1)
	assert.Equal(t, model.RoleUser, rd.snapshots[0][0].Role)
	assert.Equal(t, "Hello!", rd.snapshots[0][0].Content)
	assert.Equal(t, StateSent, c.State(1))
	assert.Equal(t, 1, c.Pending())
}

func TestOnSubmit_RapidSubmissionsSnapshotDifferentStates(t *testing.T) {
	c, _, _, rd := newTestCoordinator()

	c.OnSubmit("first")
	c.OnSubmit("second")

	require.Len(t, rd.snapshots, 2)
	assert.Len(t, rd.snapshots[0], 1)
	assert.Len(t, rd.snapshots[1], 2, "second snapshot includes the first user message")
	assert.Equal(t, "first", rd.snapshots[1][0].Content)
	assert.Equal(t, "second", rd.snapshots[1][1].Content)

	// The first snapshot is isolated from the second append.
	assert.Equal(t, "first", rd.snapshots[0][0].Content)
	assert.Equal(t, 2, c.Pending())
}

// =============================================================================
// RESULTS
// =============================================================================

func TestOnResult_SuccessAppendsAssistant(t *testing.T) {
	c, tr, _, _ := newTestCoordinator()
	c.OnSubmit("Hello!")

	c.OnResult(completion.Result{Seq: 1, Reply: "Hi there!"})

	snap := c.Conversation().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.RoleAssistant, snap[1].Role)
	assert.Equal(t, "Hi there!", snap[1].Content)
	assert.Equal(t, "You: Hello!\nAssistant: Hi there!", tr.String())
	assert.Equal(t, StateIdle, c.State(1))
	assert.Zero(t, c.Pending())
}

func TestOnResult_FailureDoesNotTouchLog(t *testing.T) {
	c, tr, _, _ := newTestCoordinator()
	c.OnSubmit("Hello!")

	failure := &cloud.Error{Kind: cloud.KindProtocol, Status: 503, Body: "overloaded"}
	c.OnResult(completion.Result{Seq: 1, Err: failure})

	assert.Equal(t, 1, c.Conversation().Len(), "no synthetic assistant message")
	assert.Equal(t, "You: Hello!\nError: HTTP 503: overloaded", tr.String())
	assert.Equal(t, StateIdle, c.State(1))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 0, stats.Replies)
	assert.Equal(t, 1, stats.Submitted)
}

func TestOnResult_OutOfOrderCompletion(t *testing.T) {
	c, tr, _, _ := newTestCoordinator()
	c.OnSubmit("one")
	c.OnSubmit("two")

	// The later request finishes first.
	c.OnResult(completion.Result{Seq: 2, Reply: "reply two"})
	c.OnResult(completion.Result{Seq: 1, Reply: "reply one"})

	assert.Equal(t, "You: one\nYou: two\nAssistant: reply two\nAssistant: reply one", tr.String())
	assert.Zero(t, c.Pending())
}

func TestOnResult_UnknownSeqStillApplied(t *testing.T) {
	c, tr, _, _ := newTestCoordinator()
	c.OnResult(completion.Result{Seq: 99, Reply: "stray"})
	assert.Equal(t, 1, c.Conversation().Len())
	assert.Equal(t, "Assistant: stray", tr.String())
}

func TestTranscript_AppendOnly(t *testing.T) {
	tr := &Transcript{}
	assert.Equal(t, "", tr.String())
	tr.AppendLine("a")
	tr.AppendLine("b")
	assert.Equal(t, "a\nb", tr.String())
	assert.Equal(t, 2, tr.Lines())
	assert.True(t, IsErrorLine("Error: x"))
	assert.False(t, IsErrorLine("You: Error: x"))
}

// =============================================================================
// END TO END
// =============================================================================

// runLoop drives the coordinator the way a harness does: a single goroutine
// applies results as they are handed off.
func runLoop(t *testing.T, c *Coordinator, results *handoff.Channel[completion.Result], want int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := 0; i < want; i++ {
		res, ok := results.Next(ctx)
		require.True(t, ok, "timed out waiting for result %d", i+1)
		c.OnResult(res)
	}
}

func newProviderServer(t *testing.T, handler http.HandlerFunc) *cloud.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return cloud.NewClient(server.URL, nil)
}

func TestEndToEnd_HelloHiThere(t *testing.T) {
	var got cloud.ChatRequest
	client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-e2e", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there!"}}]}`))
	})

	results := handoff.New[completion.Result]()
	d := completion.NewDispatcher(client, cloud.DefaultParams(), completion.StaticCredential("sk-e2e"), results)
	tr := &Transcript{}
	c := NewCoordinator(model.NewConversation(), tr, nil, d, nil)

	require.True(t, c.OnSubmit("Hello!"))
	runLoop(t, c, results, 1)

	assert.Equal(t, []cloud.ChatMessage{{Role: "user", Content: "Hello!"}}, got.Messages)

	snap := c.Conversation().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.RoleUser, snap[0].Role)
	assert.Equal(t, "Hello!", snap[0].Content)
	assert.Equal(t, model.RoleAssistant, snap[1].Role)
	assert.Equal(t, "Hi there!", snap[1].Content)
	assert.Equal(t, "You: Hello!\nAssistant: Hi there!", tr.String())
}

func TestEndToEnd_NRoundTripsAlternate(t *testing.T) {
	client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req cloud.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		last := req.Messages[len(req.Messages)-1].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "re: " + last}}},
		})
	})

	results := handoff.New[completion.Result]()
	d := completion.NewDispatcher(client, cloud.DefaultParams(), completion.StaticCredential("k"), results)
	c := NewCoordinator(model.NewConversation(), &Transcript{}, nil, d, nil)

	const n = 5
	for i := 0; i < n; i++ {
		require.True(t, c.OnSubmit(fmt.Sprintf("q%d", i)))
		runLoop(t, c, results, 1)
	}

	snap := c.Conversation().Snapshot()
	require.Len(t, snap, 2*n)
	for i, msg := range snap {
		if i%2 == 0 {
			assert.Equal(t, model.RoleUser, msg.Role)
			assert.Equal(t, fmt.Sprintf("q%d", i/2), msg.Content)
		} else {
			assert.Equal(t, model.RoleAssistant, msg.Role)
			assert.Equal(t, fmt.Sprintf("re: q%d", i/2), msg.Content)
		}
	}
}

func TestEndToEnd_ProtocolErrorLeavesLogUnchanged(t *testing.T) {
	client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	})

	results := handoff.New[completion.Result]()
	d := completion.NewDispatcher(client, cloud.DefaultParams(), completion.StaticCredential("k"), results)
	tr := &Transcript{}
	c := NewCoordinator(model.NewConversation(), tr, nil, d, nil)

	c.OnSubmit("Hello!")
	runLoop(t, c, results, 1)

	assert.Equal(t, 1, c.Conversation().Len())
	assert.Contains(t, tr.String(), "Error: HTTP 429")
}

func TestEndToEnd_DecodeErrorCarriesBody(t *testing.T) {
	client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	})

	results := handoff.New[completion.Result]()
	d := completion.NewDispatcher(client, cloud.DefaultParams(), completion.StaticCredential("k"), results)
	c := NewCoordinator(model.NewConversation(), &Transcript{}, nil, d, nil)

	c.OnSubmit("Hello!")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, ok := results.Next(ctx)
	require.True(t, ok)

	var ce *cloud.Error
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, cloud.KindDecode, ce.Kind)
	assert.Equal(t, `{"unexpected":true}`, ce.Body)

	c.OnResult(res)
	assert.Equal(t, 1, c.Conversation().Len())
}

// TestEndToEnd_ConcurrentDispatch submits twice before either reply
// returns. Both workers run, the second snapshot contains the first user
// message, and both results are delivered without deadlock.
func TestEndToEnd_ConcurrentDispatch(t *testing.T) {
	var mu sync.Mutex
	var seen [][]cloud.ChatMessage
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})

	client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req cloud.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		seen = append(seen, req.Messages)
		mu.Unlock()
		arrived <- struct{}{}
		<-release
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	results := handoff.New[completion.Result]()
	d := completion.NewDispatcher(client, cloud.DefaultParams(), completion.StaticCredential("k"), results)
	c := NewCoordinator(model.NewConversation(), &Transcript{}, nil, d, nil)

	c.OnSubmit("first")
	c.OnSubmit("second")
	assert.Equal(t, 2, c.Pending())

	for i := 0; i < 2; i++ {
		select {
		case <-arrived:
		case <-time.After(5 * time.Second):
			t.Fatal("both requests should be in flight at once")
		}
	}
	close(release)

	runLoop(t, c, results, 2)
	assert.Zero(t, c.Pending())
	assert.Equal(t, 4, c.Conversation().Len())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	lens := []int{len(seen[0]), len(seen[1])}
	assert.ElementsMatch(t, []int{1, 2}, lens)
}
