package infra

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericToInt64(t *testing.T) {
	t.Run("plain integer", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(12345), Exp: 0, Valid: true}
		v, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, int64(12345), v)
	})

	t.Run("positive exponent scales up", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(5), Exp: 3, Valid: true}
		v, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), v)
	})

	t.Run("negative exponent rejected", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true}
		_, err := NumericToInt64(n)
		assert.Error(t, err)
	})

	t.Run("NULL rejected", func(t *testing.T) {
		_, err := NumericToInt64(pgtype.Numeric{Valid: false})
		assert.Error(t, err)
	})

	t.Run("overflow rejected", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 70)
		_, err := NumericToInt64(pgtype.Numeric{Int: huge, Exp: 0, Valid: true})
		assert.Error(t, err)
	})

	t.Run("round-trips through Int64ToNumeric", func(t *testing.T) {
		for _, v := range []int64{0, 1, -1, 999999999999} {
			got, err := NumericToInt64(Int64ToNumeric(v))
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})
}

func TestNumericToDecimal(t *testing.T) {
	t.Run("fractional multiplier", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(105000), Exp: -4, Valid: true}
		d, err := NumericToDecimal(n)
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("10.5")), "got %s", d)
	})

	t.Run("NULL rejected", func(t *testing.T) {
		_, err := NumericToDecimal(pgtype.Numeric{Valid: false})
		assert.Error(t, err)
	})

	t.Run("NaN rejected", func(t *testing.T) {
		_, err := NumericToDecimal(pgtype.Numeric{NaN: true, Valid: true})
		assert.Error(t, err)
	})

	t.Run("round-trips through DecimalToNumeric", func(t *testing.T) {
		d := decimal.RequireFromString("12.3456")
		got, err := NumericToDecimal(DecimalToNumeric(d))
		require.NoError(t, err)
		assert.True(t, d.Equal(got))
	})
}
