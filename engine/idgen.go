package engine

import (
	"crypto/rand"
	"encoding/hex"
)

// newOrderID returns 128 bits of cryptographically random data rendered as
// hex. Collisions are treated as catastrophic and never retried (spec's
// random-order-id policy): the random source has a 2^-64 birthday-bound
// collision probability at any operationally realistic order count.
func newOrderID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("engine: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf[:])
}
