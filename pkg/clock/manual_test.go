package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)

	var fired []string
	c.AfterFunc(10*time.Minute, func() { fired = append(fired, "ten") })
	c.AfterFunc(5*time.Minute, func() { fired = append(fired, "five") })

	c.Advance(4 * time.Minute)
	assert.Empty(t, fired)
	assert.Equal(t, 2, c.Pending())

	c.Advance(10 * time.Minute)
	assert.Equal(t, []string{"five", "ten"}, fired)
	assert.Equal(t, start.Add(14*time.Minute), c.Now())
	assert.Equal(t, 0, c.Pending())
}

func TestManualStop(t *testing.T) {
	c := NewManual(time.Unix(0, 0))

	ran := false
	timer := c.AfterFunc(time.Second, func() { ran = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, ran)
}

func TestManualStopAfterFire(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, timer.Stop())
}
