// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package handoff

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_FIFODrain(t *testing.T) {
	ch := New[int]()
	for i := 1; i <= 3; i++ {
		require.True(t, ch.Publish(i))
	}
	assert.Equal(t, 3, ch.Len())

	select {
	case <-ch.Ready():
	default:
		t.Fatal("expected a pending wake-up after publish")
	}

	assert.Equal(t, []int{1, 2, 3}, ch.Drain())
	assert.Nil(t, ch.Drain())
	assert.Equal(t, 0, ch.Len())
}

func TestChannel_NextBlocksUntilPublish(t *testing.T) {
	ch := New[string]()

	got := make(chan string, 1)
	go func() {
		v, ok := ch.Next(context.Background())
		if ok {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Publish("hello")

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Publish")
	}
}

func TestChannel_NextPreservesOrder(t *testing.T) {
	ch := New[int]()
	for i := 0; i < 10; i++ {
		ch.Publish(i)
	}
	for i := 0; i < 10; i++ {
		v, ok := ch.Next(context.Background())
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestChannel_NextHonorsContext(t *testing.T) {
	ch := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := ch.Next(ctx)
	assert.False(t, ok)
}

func TestChannel_Close(t *testing.T) {
	ch := New[int]()
	ch.Publish(7)
	ch.Close()
	ch.Close()

	assert.False(t, ch.Publish(8), "publish after close must be rejected")

	v, ok := ch.Next(context.Background())
	require.True(t, ok, "items queued before close are still delivered")
	assert.Equal(t, 7, v)

	_, ok = ch.Next(context.Background())
	assert.False(t, ok)

	select {
	case <-ch.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

// TestChannel_ConcurrentPublishers checks that no value is lost when many
// goroutines publish while a single consumer drains.
func TestChannel_ConcurrentPublishers(t *testing.T) {
	ch := New[int]()
	const publishers = 20
	const each = 50

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				ch.Publish(i)
			}
		}()
	}

	received := 0
	deadline := time.After(5 * time.Second)
	for received < publishers*each {
		select {
		case <-ch.Ready():
			received += len(ch.Drain())
		case <-deadline:
			t.Fatalf("timed out after receiving %d values", received)
		}
	}
	wg.Wait()
	received += len(ch.Drain())
	assert.Equal(t, publishers*each, received)
}
