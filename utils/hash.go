// Package utils provides utility functions for the application.
package utils

import "unicode/utf16"

// SessionKeyHash computes the 32-bit rolling hash used for A/B variant
// assignment: h = h*31 + c over the UTF-16 code units of the key, truncated to
// a signed 32-bit integer at every step, absolute value of the final result.
// The formula is shared with other consumers of the assignment scheme, so the
// truncation behavior must not change.
func SessionKeyHash(key string) int64 {
	var h int32
	for _, r := range key {
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			h = h*31 + int32(hi)
			h = h*31 + int32(lo)
			continue
		}
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// SessionKeyBucket maps a session key into one of 100 buckets. A key belongs
// to variant A of a test when its bucket is below the test's traffic split.
func SessionKeyBucket(key string) int {
	return int(SessionKeyHash(key) % 100)
}
