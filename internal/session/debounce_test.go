package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCall(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
		return ""
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, 120*time.Millisecond)
	calls := make(chan string, 4)

	d.Trigger(func() { calls <- "first" })
	clock.Advance(80 * time.Millisecond)
	d.Trigger(func() { calls <- "second" })
	clock.Advance(80 * time.Millisecond)
	assert.True(t, d.Pending())

	clock.Advance(40 * time.Millisecond)
	assert.Equal(t, "second", waitCall(t, calls))
	assert.False(t, d.Pending())

	select {
	case v := <-calls:
		t.Fatalf("unexpected extra call %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebouncer(clock, 120*time.Millisecond)
	var ran atomic.Int32

	assert.False(t, d.Cancel())

	d.Trigger(func() { ran.Add(1) })
	require.True(t, d.Cancel())
	assert.False(t, d.Pending())

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}
