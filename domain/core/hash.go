package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Hasher accumulates typed values into a sha256 digest. Floats are hashed by
// their IEEE-754 bits so two digests match only for bit-identical inputs.
type Hasher struct {
	buf []byte
}

// NewHasher creates an empty hasher
func NewHasher() *Hasher {
	return &Hasher{buf: make([]byte, 0, 256)}
}

func (h *Hasher) String(s string) *Hasher {
	h.Uint64(uint64(len(s)))
	h.buf = append(h.buf, s...)
	return h
}

func (h *Hasher) Uint64(v uint64) *Hasher {
	h.buf = binary.LittleEndian.AppendUint64(h.buf, v)
	return h
}

func (h *Hasher) Int(v int) *Hasher {
	return h.Uint64(uint64(int64(v)))
}

func (h *Hasher) Float64(v float64) *Hasher {
	return h.Uint64(math.Float64bits(v))
}

func (h *Hasher) Bool(v bool) *Hasher {
	if v {
		return h.Uint64(1)
	}
	return h.Uint64(0)
}

// Sum returns the digest of everything written so far
func (h *Hasher) Sum() Hash {
	return NewHash(h.buf)
}
