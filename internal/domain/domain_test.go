package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBets(t *testing.T) {
	const limit = 500000 // 5000.00 in minor units

	t.Run("valid slip sums total", func(t *testing.T) {
		total, err := ValidateBets([]BetInput{
			{CardNumber: 3, BetAmount: 5000},
			{CardNumber: 7, BetAmount: 3000},
		}, limit)
		require.NoError(t, err)
		assert.Equal(t, int64(8000), total)
	})

	t.Run("empty slip rejected", func(t *testing.T) {
		_, err := ValidateBets(nil, limit)
		assert.Error(t, err)
	})

	t.Run("more than 12 bets rejected", func(t *testing.T) {
		bets := make([]BetInput, 13)
		for i := range bets {
			bets[i] = BetInput{CardNumber: (i % 12) + 1, BetAmount: 100}
		}
		_, err := ValidateBets(bets, limit)
		assert.Error(t, err)
	})

	t.Run("duplicate card rejected", func(t *testing.T) {
		_, err := ValidateBets([]BetInput{
			{CardNumber: 5, BetAmount: 100},
			{CardNumber: 5, BetAmount: 200},
		}, limit)
		assert.Error(t, err)
	})

	t.Run("out-of-range card rejected", func(t *testing.T) {
		for _, n := range []int{0, 13, -1} {
			_, err := ValidateBets([]BetInput{{CardNumber: n, BetAmount: 100}}, limit)
			assert.Error(t, err, "card %d", n)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := ValidateBets([]BetInput{{CardNumber: 1, BetAmount: 0}}, limit)
		assert.Error(t, err)
	})

	t.Run("over-limit amount rejected with code", func(t *testing.T) {
		_, err := ValidateBets([]BetInput{{CardNumber: 1, BetAmount: limit + 1}}, limit)
		require.Error(t, err)
		appErr, ok := err.(*AppError)
		require.True(t, ok)
		assert.Equal(t, "OVER_LIMIT", appErr.Code)
	})

	t.Run("full board accepted", func(t *testing.T) {
		bets := make([]BetInput, CardCount)
		for i := range bets {
			bets[i] = BetInput{CardNumber: i + 1, BetAmount: 100}
		}
		total, err := ValidateBets(bets, limit)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), total)
	})
}

func TestValidateHandle(t *testing.T) {
	assert.NoError(t, ValidateHandle("player_01"))
	assert.NoError(t, ValidateHandle("a.b-c"))
	for _, h := range []string{"ab", "", "has space", "way-too-long-handle-way-too-long-handle"} {
		assert.Error(t, ValidateHandle(h), "handle %q", h)
	}
}

func TestSlipClaimable(t *testing.T) {
	now := time.Now()

	t.Run("won unclaimed slip is claimable", func(t *testing.T) {
		s := BetSlip{Status: SlipWon, PayoutAmount: 50000}
		assert.True(t, s.Claimable())
	})

	t.Run("claimed slip is not", func(t *testing.T) {
		s := BetSlip{Status: SlipWon, PayoutAmount: 50000, Claimed: true, ClaimedAt: &now}
		assert.False(t, s.Claimable())
	})

	t.Run("cancelled slip is not", func(t *testing.T) {
		s := BetSlip{Status: SlipLost, CancelledAt: &now}
		assert.False(t, s.Claimable())
	})

	t.Run("pending slip is not", func(t *testing.T) {
		s := BetSlip{Status: SlipPending}
		assert.False(t, s.Claimable())
	})
}

func TestRoundAcceptsBets(t *testing.T) {
	end := time.Date(2025, 11, 13, 3, 35, 0, 0, time.UTC)
	r := Round{Status: RoundActive, EndTime: end}

	assert.True(t, r.AcceptsBets(end.Add(-time.Minute)))
	assert.False(t, r.AcceptsBets(end))
	assert.False(t, r.AcceptsBets(end.Add(time.Second)))

	r.Status = RoundPending
	assert.False(t, r.AcceptsBets(end.Add(-time.Minute)))
	r.Status = RoundCompleted
	assert.False(t, r.AcceptsBets(end.Add(-time.Minute)))
}

func TestMaskHandle(t *testing.T) {
	assert.Equal(t, "pl***1", MaskHandle("player_01"))
	assert.Equal(t, "a**", MaskHandle("abc"))
	assert.Equal(t, "a**", MaskHandle("a"))
	assert.Equal(t, "***", MaskHandle(""))
}

func TestAppError(t *testing.T) {
	err := ErrInsufficientBalance(92000)
	assert.Equal(t, "INSUFFICIENT_BALANCE", err.Code)
	assert.Equal(t, 400, err.Status)
	assert.Contains(t, err.Message, "92000")

	wrapped := ErrInternal("boom", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
}
