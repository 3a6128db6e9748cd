package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.NoError(t, rl.Allow("1.2.3.4"))
	}
	err := rl.Allow("1.2.3.4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMITED")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	assert.NoError(t, rl.Allow("a"))
	assert.NoError(t, rl.Allow("b"))
	assert.Error(t, rl.Allow("a"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	require.NoError(t, rl.Allow("k"))
	require.Error(t, rl.Allow("k"))
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, rl.Allow("k"))
}
