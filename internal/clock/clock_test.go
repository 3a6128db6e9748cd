package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameID(t *testing.T) {
	// 2025-11-13 03:30 UTC == 2025-11-13 09:00 IST.
	start := time.Date(2025, 11, 13, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, "202511130900", GameID(start))
}

func TestParseGameID(t *testing.T) {
	t.Run("round-trips with GameID", func(t *testing.T) {
		start := time.Date(2025, 11, 13, 3, 30, 0, 0, time.UTC)
		got, err := ParseGameID(GameID(start))
		require.NoError(t, err)
		assert.True(t, start.Equal(got), "want %s got %s", start, got)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseGameID("not-a-round")
		assert.Error(t, err)
	})
}

func TestNextBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid-interval rounds up",
			in:   time.Date(2025, 11, 13, 9, 2, 17, 0, time.UTC),
			want: time.Date(2025, 11, 13, 9, 5, 0, 0, time.UTC),
		},
		{
			name: "exact boundary advances to the next one",
			in:   time.Date(2025, 11, 13, 9, 5, 0, 0, time.UTC),
			want: time.Date(2025, 11, 13, 9, 10, 0, 0, time.UTC),
		},
		{
			name: "crosses the hour",
			in:   time.Date(2025, 11, 13, 9, 58, 59, 0, time.UTC),
			want: time.Date(2025, 11, 13, 10, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextBoundary(tt.in)))
		})
	}
}

func TestParseHHMM(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		h, m, err := ParseHHMM("08:00")
		require.NoError(t, err)
		assert.Equal(t, 8, h)
		assert.Equal(t, 0, m)

		h, m, err = ParseHHMM("22:45")
		require.NoError(t, err)
		assert.Equal(t, 22, h)
		assert.Equal(t, 45, m)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"24:00", "8:00", "08:60", "0800", "", "ab:cd"} {
			_, _, err := ParseHHMM(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestWithinDailyWindow(t *testing.T) {
	// 04:30 UTC == 10:00 IST.
	inside := time.Date(2025, 11, 13, 4, 30, 0, 0, time.UTC)
	// 17:00 UTC == 22:30 IST.
	outside := time.Date(2025, 11, 13, 17, 0, 0, 0, time.UTC)

	ok, err := WithinDailyWindow(inside, "08:00", "22:00")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WithinDailyWindow(outside, "08:00", "22:00")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("close bound is exclusive", func(t *testing.T) {
		// 16:30 UTC == 22:00 IST exactly.
		atClose := time.Date(2025, 11, 13, 16, 30, 0, 0, time.UTC)
		ok, err := WithinDailyWindow(atClose, "08:00", "22:00")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("bad window strings", func(t *testing.T) {
		_, err := WithinDailyWindow(inside, "8am", "22:00")
		assert.Error(t, err)
	})
}

func TestISTDayBounds(t *testing.T) {
	start, end, err := ISTDayBounds("2025-11-13")
	require.NoError(t, err)
	// IST midnight is 18:30 UTC the previous day.
	assert.True(t, start.Equal(time.Date(2025, 11, 12, 18, 30, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2025, 11, 13, 18, 30, 0, 0, time.UTC)))

	_, _, err = ISTDayBounds("13-11-2025")
	assert.Error(t, err)
}
