package loyalty

// Hash-based commitment (C3), used to realize the coin-flipping
// subprotocol that jointly selects a registered user index that
// neither the shopper's client nor the server alone controls.

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
)

// TxID is the 32-byte commitment digest that doubles as the
// transaction handle throughout the protocol (spec.md §4.8: "the
// canonical production key is com itself").
type TxID [32]byte

// commit hashes the 8-byte little-endian encoding of i concatenated
// with the 64-byte mask r, fixing the Python prototype's bytes(i)
// defect (spec.md §9: the source's bytes(i) zero-fills rather than
// encoding i).
func commit(i uint64, r [64]byte) TxID {
	var buf [8 + 64]byte
	binary.LittleEndian.PutUint64(buf[:8], i)
	copy(buf[8:], r[:])
	return sha256.Sum256(buf[:])
}

// open recomputes the commitment and compares it in constant time.
func open(i uint64, r [64]byte, com TxID) bool {
	got := commit(i, r)
	return subtle.ConstantTimeCompare(got[:], com[:]) == 1
}
