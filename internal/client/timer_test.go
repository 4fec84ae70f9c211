package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnceOnTimeout(t *testing.T) {
	var fired int32
	reasons := make(chan string, 1)

	timer := NewExamTimer(20*time.Millisecond, func(reason string) {
		atomic.AddInt32(&fired, 1)
		reasons <- reason
	})
	defer timer.Stop()

	select {
	case reason := <-reasons:
		assert.Equal(t, "timeout", reason)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestTimerViolationThresholdFiresOnce(t *testing.T) {
	var fired int32
	reasons := make(chan string, 1)

	timer := NewExamTimer(time.Hour, func(reason string) {
		atomic.AddInt32(&fired, 1)
		reasons <- reason
	})
	defer timer.Stop()

	assert.Equal(t, 1, timer.RecordViolation())
	assert.Equal(t, 2, timer.RecordViolation())
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))

	assert.Equal(t, 3, timer.RecordViolation())

	select {
	case reason := <-reasons:
		assert.Equal(t, "violations", reason)
	case <-time.After(time.Second):
		t.Fatal("violation limit never fired")
	}

	// Further violations must not fire again.
	timer.RecordViolation()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestTimerStopPreventsFiring(t *testing.T) {
	var fired int32

	timer := NewExamTimer(30*time.Millisecond, func(string) {
		atomic.AddInt32(&fired, 1)
	})
	timer.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))

	// Violations after Stop are ignored too.
	timer.RecordViolation()
	timer.RecordViolation()
	timer.RecordViolation()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestTimerRemainingCountsDown(t *testing.T) {
	timer := NewExamTimer(time.Hour, func(string) {})
	defer timer.Stop()

	rem := timer.Remaining()
	assert.Greater(t, rem, 59*time.Minute)
	assert.LessOrEqual(t, rem, time.Hour)
}
