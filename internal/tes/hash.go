// Package tes implements the 64-bit filename hash used as the lookup key in
// BSA folder and file records.
package tes

import "strings"

// multiplier is the rolling-hash factor used for both the stem and the
// extension folds.
const multiplier = 0x1003f

// Extension marker bits mixed into the low word of the hash.
const (
	markKF  = 0x80
	markNIF = 0x8000
	markDDS = 0x8080
	markWAV = 0x80000000
)

// Hash returns the TES hash of a name stem and its extension.
//
// ext is either empty or starts with a dot (".nif"). Inputs are expected to be
// lower-cased already; Hash does not fold case.
func Hash(stem, ext string) uint64 {
	chars := []rune(stem)
	n := len(chars)

	var first, last, penultimate uint32
	if n > 0 {
		first = uint32(chars[0])
		last = uint32(chars[n-1])
	}
	if n > 2 {
		penultimate = uint32(chars[n-2])
	}

	hash1 := last | penultimate<<8 | uint32(n)<<16 | first<<24
	switch ext {
	case ".kf":
		hash1 |= markKF
	case ".nif":
		hash1 |= markNIF
	case ".dds":
		hash1 |= markDDS
	case ".wav":
		hash1 |= markWAV
	}

	var hash2 uint32
	if n > 3 {
		hash2 = fold(chars[1 : n-2])
	}
	hash2 += fold([]rune(ext))

	return uint64(hash2)<<32 + uint64(hash1)
}

// HashName hashes a file name by splitting it on the final dot.
// A name without a dot hashes with an empty extension.
func HashName(name string) uint64 {
	stem, ext := SplitExt(name)
	return Hash(stem, ext)
}

// SplitExt splits name at its final dot. The extension keeps the dot.
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func fold(chars []rune) uint32 {
	var h uint32
	for _, c := range chars {
		h = h*multiplier + uint32(c)
	}
	return h
}
