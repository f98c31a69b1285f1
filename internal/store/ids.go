package store

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32
// (lowercase, no padding), ~40 bits of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return prefix + "-" + strings.ToLower(enc.EncodeToString(b[:])), nil
}

// NewThoughtID returns an id not yet used in g.
func (g *Graph) NewThoughtID() (string, error) {
	for i := 0; i < 64; i++ {
		id, err := newRandomID("t")
		if err != nil {
			return "", err
		}
		if !g.Exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("unable to allocate a unique thought id after 64 attempts")
}
