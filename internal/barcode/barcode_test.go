package barcode

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	codec, err := NewCodec("test-secret-0123456789-0123456789")
	require.NoError(t, err)

	slipID := uuid.MustParse("a3f1c2d4-5678-4abc-9def-000011112222")
	code := codec.Encode("202511130900", slipID)

	t.Run("shape", func(t *testing.T) {
		assert.Len(t, code, Length)
		assert.True(t, Valid(code), "code %q", code)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, code, codec.Encode("202511130900", slipID))
	})

	t.Run("varies with game id", func(t *testing.T) {
		assert.NotEqual(t, code, codec.Encode("202511130905", slipID))
	})

	t.Run("varies with slip id", func(t *testing.T) {
		assert.NotEqual(t, code, codec.Encode("202511130900", uuid.New()))
	})

	t.Run("varies with secret", func(t *testing.T) {
		other, err := NewCodec("another-secret-0123456789-012345")
		require.NoError(t, err)
		assert.NotEqual(t, code, other.Encode("202511130900", slipID))
	})
}

func TestVerify(t *testing.T) {
	codec, err := NewCodec("test-secret-0123456789-0123456789")
	require.NoError(t, err)

	slipID := uuid.New()
	code := codec.Encode("202511130900", slipID)

	assert.True(t, codec.Verify("202511130900", slipID, code))
	assert.False(t, codec.Verify("202511130905", slipID, code))
	assert.False(t, codec.Verify("202511130900", uuid.New(), code))

	t.Run("rejects any single-character mutation", func(t *testing.T) {
		for i := 0; i < len(code); i++ {
			mutated := []byte(code)
			if mutated[i] == 'Z' {
				mutated[i] = 'A'
			} else {
				mutated[i] = 'Z'
			}
			assert.False(t, codec.Verify("202511130900", slipID, string(mutated)),
				"mutation at %d accepted", i)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		assert.False(t, codec.Verify("202511130900", slipID, "short"))
		assert.False(t, codec.Verify("202511130900", slipID, ""))
		assert.False(t, codec.Verify("202511130900", slipID, "abcdefghijklm")) // lowercase
	})
}

func TestNormalize(t *testing.T) {
	codec, _ := NewCodec("test-secret-0123456789-0123456789")
	code := codec.Encode("202511130900", uuid.New())

	t.Run("uppercases scans", func(t *testing.T) {
		got, err := Normalize("  " + code + " ")
		require.NoError(t, err)
		assert.Equal(t, code, got)
	})

	t.Run("rejects wrong shape", func(t *testing.T) {
		_, err := Normalize("1234")
		assert.Error(t, err)
	})
}

func TestNewCodec(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}
