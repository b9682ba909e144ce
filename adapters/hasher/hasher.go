// Package hasher provides description fingerprint implementations.
package hasher

import (
	"encoding/hex"
	"strings"

	"github.com/easyworld/worldgen/ports"
	"golang.org/x/crypto/blake2b"
)

// Blake2b fingerprints text with a keyed BLAKE2b-256.
type Blake2b struct {
	key []byte
}

// NewBlake2b creates a fingerprinter. The key may be empty; a key longer than
// 64 bytes is truncated.
func NewBlake2b(key string) *Blake2b {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Blake2b{key: k}
}

// Fingerprint normalises whitespace and case, then hashes.
func (h *Blake2b) Fingerprint(text string) string {
	d, err := blake2b.New256(h.key)
	if err != nil {
		// Only reachable with an oversized key, which NewBlake2b prevents.
		panic(err)
	}
	d.Write([]byte(normalize(text)))
	return hex.EncodeToString(d.Sum(nil))
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Ensure interface compliance.
var _ ports.Fingerprinter = (*Blake2b)(nil)

// Fake returns the normalised text itself (NOT FOR PRODUCTION).
type Fake struct{}

// Fingerprint returns the normalised text.
func (Fake) Fingerprint(text string) string {
	return normalize(text)
}

// Ensure interface compliance.
var _ ports.Fingerprinter = Fake{}
