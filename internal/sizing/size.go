// Package sizing provides safe size arithmetic for the fixed-width fields of
// the archive format.
package sizing

import "math"

// ToUint32 converts a non-negative int64 to uint32, returning overflowErr if it doesn't fit.
func ToUint32(size int64, overflowErr error) (uint32, error) {
	if size < 0 || size > math.MaxUint32 {
		return 0, overflowErr
	}
	return uint32(size), nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}
