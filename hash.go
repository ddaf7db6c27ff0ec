package bsa

import (
	"strings"

	"github.com/meigma/bsa/internal/tes"
)

// Hash returns the 64-bit TES hash of a name stem and its extension.
// ext is empty or includes the leading dot. Inputs must already be lower-cased.
func Hash(stem, ext string) uint64 {
	return tes.Hash(stem, ext)
}

// HashFile returns the record hash of a file name such as "Cuirass.NIF".
// The name is lower-cased and split at its final dot.
func HashFile(name string) uint64 {
	return tes.HashName(strings.ToLower(strings.TrimSpace(name)))
}

// HashFolder returns the record hash of an archive folder such as `meshes\armor`.
// The name is lower-cased before hashing.
func HashFolder(name string) uint64 {
	return tes.Hash(strings.ToLower(strings.TrimSpace(name)), "")
}
