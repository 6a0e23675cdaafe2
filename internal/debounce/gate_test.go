package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGate_LastWriteWins(t *testing.T) {
	clock := NewManualClock()
	g := New(clock)

	var fired []int
	for i := 1; i <= 5; i++ {
		i := i
		g.Schedule(func() { fired = append(fired, i) }, 300*time.Millisecond)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, fired, "nothing may fire while input keeps arriving")
	assert.True(t, g.Pending())

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{5}, fired)
	assert.False(t, g.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, []int{5}, fired, "superseded callbacks must never fire")
}

func TestGate_Cancel(t *testing.T) {
	clock := NewManualClock()
	g := New(clock)

	called := false
	g.Schedule(func() { called = true }, 300*time.Millisecond)
	g.Cancel()
	clock.Advance(time.Second)

	assert.False(t, called)
	assert.False(t, g.Pending())
	assert.Equal(t, 0, clock.Pending())
}

func TestGate_ScheduleFromCallback(t *testing.T) {
	clock := NewManualClock()
	g := New(clock)

	count := 0
	var again func()
	again = func() {
		count++
		if count < 3 {
			g.Schedule(again, 10*time.Millisecond)
		}
	}
	g.Schedule(again, 10*time.Millisecond)
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 3, count)
}

func TestGate_RealClock(t *testing.T) {
	g := New(nil)

	var calls atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		g.Schedule(func() {
			calls.Add(1)
			close(done)
		}, 20*time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback did not fire")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
