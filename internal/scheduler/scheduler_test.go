package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRoundFire(t *testing.T) {
	boundary := time.Date(2025, 11, 13, 9, 5, 0, 0, time.UTC)

	t.Run("outside the lead window aims at the upcoming boundary", func(t *testing.T) {
		now := boundary.Add(-2 * time.Minute)
		assert.Equal(t, boundary.Add(-roundLead), nextRoundFire(now))
	})

	t.Run("inside the lead window skips to the following boundary", func(t *testing.T) {
		for _, offset := range []time.Duration{29 * time.Second, 15 * time.Second, time.Second} {
			now := boundary.Add(-offset)
			fire := nextRoundFire(now)
			assert.True(t, fire.After(now), "fire %v not after now %v", fire, now)
			assert.Equal(t, boundary.Add(5*time.Minute-roundLead), fire)
		}
	})

	t.Run("exactly on the fire point waits a full interval", func(t *testing.T) {
		now := boundary.Add(-roundLead)
		assert.Equal(t, boundary.Add(5*time.Minute-roundLead), nextRoundFire(now))
	})

	t.Run("on the boundary itself", func(t *testing.T) {
		fire := nextRoundFire(boundary)
		assert.Equal(t, boundary.Add(5*time.Minute-roundLead), fire)
	})
}
