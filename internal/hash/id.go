// Package hash provides the xxHash64 helpers used for matrix identity
// and blob integrity.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a matrix name. Matrix IDs are content
// addressed, so the same name always maps to the same 64-bit ID.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Checksum computes the xxHash64 of raw blob bytes.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
