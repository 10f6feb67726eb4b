package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDummyClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	stopped := &DummyClock{T: start}
	assert.Equal(t, start, stopped.Now())
	assert.Equal(t, start, stopped.Now())

	ticking := &DummyClock{T: start, Step: time.Second}
	assert.Equal(t, start, ticking.Now())
	assert.Equal(t, start.Add(time.Second), ticking.Now())
}

func TestStopwatch(t *testing.T) {
	clock := &DummyClock{T: time.Now(), Step: 250 * time.Millisecond}
	sw := StartStopwatch(clock)
	assert.Equal(t, 250*time.Millisecond, sw.Elapsed())
	assert.Equal(t, 500*time.Millisecond, sw.Elapsed())

	assert.Equal(t, time.Duration(0), StartStopwatch(&DummyClock{T: time.Now()}).Elapsed())
}
