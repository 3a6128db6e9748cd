package round

import (
	"testing"
	"time"

	"github.com/luckytwelve/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestInitialStatus(t *testing.T) {
	start := time.Date(2025, 11, 13, 9, 5, 0, 0, time.UTC)

	t.Run("scheduler lead time inserts active", func(t *testing.T) {
		assert.Equal(t, domain.RoundActive, initialStatus(start, start.Add(-30*time.Second)))
	})

	t.Run("exactly one minute out inserts active", func(t *testing.T) {
		assert.Equal(t, domain.RoundActive, initialStatus(start, start.Add(-time.Minute)))
	})

	t.Run("already started inserts active", func(t *testing.T) {
		assert.Equal(t, domain.RoundActive, initialStatus(start, start.Add(2*time.Minute)))
	})

	t.Run("further out inserts pending", func(t *testing.T) {
		assert.Equal(t, domain.RoundPending, initialStatus(start, start.Add(-61*time.Second)))
		assert.Equal(t, domain.RoundPending, initialStatus(start, start.Add(-5*time.Minute)))
	})
}
