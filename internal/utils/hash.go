package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// Hasher computes keyed HMAC-SHA256 digests. Hash instances are pooled so
// that verifying many webhook payloads does not allocate a new HMAC each
// time. A Hasher is safe for concurrent use.
type Hasher struct {
	pool sync.Pool
}

// NewHasher returns a Hasher keyed with hashKey.
func NewHasher(hashKey string) *Hasher {
	key := []byte(hashKey)
	return &Hasher{
		pool: sync.Pool{
			New: func() any {
				return hmac.New(sha256.New, key)
			},
		},
	}
}

// Hash computes an HMAC-SHA256 signature over the concatenation of parts.
//
// Behavior:
//   - Retrieves a hash.Hash instance from the pool
//   - Resets it, writes the data, computes the sum
//   - Resets again and returns it to the pool
func (h *Hasher) Hash(parts ...[]byte) []byte {
	mac := h.pool.Get().(hash.Hash)
	mac.Reset()

	for _, p := range parts {
		mac.Write(p)
	}
	sum := mac.Sum(nil)

	mac.Reset()
	h.pool.Put(mac)

	return sum
}

// Verify reports whether hexSignature is the hex-encoded HMAC of parts.
// The comparison runs in constant time.
func (h *Hasher) Verify(hexSignature string, parts ...[]byte) bool {
	sig, err := hex.DecodeString(hexSignature)
	if err != nil {
		return false
	}
	return hmac.Equal(sig, h.Hash(parts...))
}

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// Unlike Hasher.Hash, this function does not use a pool and creates a new
// HMAC instance on each call. It is used to sign payloads in tests and
// one-off tooling.
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
