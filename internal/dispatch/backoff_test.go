package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayDoubles(t *testing.T) {
	b := Backoff{Base: time.Minute, MaxRetries: 3}

	assert.Equal(t, time.Minute, b.Delay(0))
	assert.Equal(t, 2*time.Minute, b.Delay(1))
	assert.Equal(t, 4*time.Minute, b.Delay(2))
	assert.Equal(t, 8*time.Minute, b.Delay(3))
}

func TestBackoffExhausted(t *testing.T) {
	b := Backoff{Base: time.Minute, MaxRetries: 3}

	assert.False(t, b.Exhausted(0))
	assert.False(t, b.Exhausted(2))
	assert.True(t, b.Exhausted(3))
	assert.True(t, b.Exhausted(4))
}
