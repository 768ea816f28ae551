package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionKeyHash(t *testing.T) {
	t.Run("KnownValues", func(t *testing.T) {
		cases := []struct {
			key  string
			hash int64
		}{
			{"", 0},
			{"a", 97},
			{"ab", 3105},
			{"abc", 96354},
			{"default", 1544803905},
			{"192.168.1.10", 1734945211},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.hash, SessionKeyHash(tc.key), "key %q", tc.key)
		}
	})

	t.Run("NegativeOverflowTakesAbsoluteValue", func(t *testing.T) {
		// These keys overflow int32 into negative territory; the hash is
		// the absolute value of the truncated result.
		assert.Equal(t, int64(23692677), SessionKeyHash("session-123"))
		assert.Equal(t, int64(1832649667), SessionKeyHash("visitor-42"))
		assert.Equal(t, int64(2093879032), SessionKeyHash("abcdefghijklmnop"))
	})

	t.Run("Int32MinimumStaysPositive", func(t *testing.T) {
		// This key truncates to exactly math.MinInt32; negating in int64
		// keeps the value in range instead of wrapping back to negative.
		assert.Equal(t, int64(2147483648), SessionKeyHash("polygenelubricants"))
	})

	t.Run("SurrogatePairsHashPerCodeUnit", func(t *testing.T) {
		// U+1F600 encodes as the UTF-16 pair D83D DE00.
		assert.Equal(t, int64(0xD83D*31+0xDE00), SessionKeyHash("😀"))
	})
}

func TestSessionKeyBucket(t *testing.T) {
	cases := []struct {
		key    string
		bucket int
	}{
		{"", 0},
		{"a", 97},
		{"ab", 5},
		{"abc", 54},
		{"session-123", 77},
		{"default", 5},
		{"polygenelubricants", 48},
		{"192.168.1.10", 11},
		{"visitor-42", 67},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.bucket, SessionKeyBucket(tc.key), "key %q", tc.key)
	}

	t.Run("Stable", func(t *testing.T) {
		for range 10 {
			assert.Equal(t, SessionKeyBucket("session-123"), SessionKeyBucket("session-123"))
		}
	})

	t.Run("InRange", func(t *testing.T) {
		for _, key := range []string{"", "x", "session-abc", "10.0.0.1", "😀😀😀"} {
			b := SessionKeyBucket(key)
			assert.GreaterOrEqual(t, b, 0)
			assert.Less(t, b, 100)
		}
	})
}
