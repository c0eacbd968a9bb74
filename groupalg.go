package loyalty

// Group & scalar layer (C1). G is ristretto255: a prime-order group
// built on edwards25519 with a canonical 32-byte encoding and
// constant-time arithmetic throughout. Scalars are integers mod the
// group order l.

import (
	"encoding/binary"
	"io"
	"math/big"

	"golang.org/x/crypto/sha3"

	ristretto "github.com/gtank/ristretto255"
)

// groupOrder is l, the order of the ristretto255 group
// (2^252 + 27742317777372353535851937790883648493).
var groupOrder, _ = new(big.Int).SetString("7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)

// ScalarRandom samples a uniform scalar from rng, which must be a
// cryptographically secure source of randomness. 64 bytes of input
// are wide-reduced mod l via FromUniformBytes, the same approach the
// teacher's randomScalar used with crypto/rand.
func ScalarRandom(rng io.Reader) (*ristretto.Scalar, error) {
	b := make([]byte, 64)
	if _, err := io.ReadFull(rng, b); err != nil {
		return nil, wrapErr(ErrRngFailure, "could not read randomness for scalar", err)
	}
	return new(ristretto.Scalar).FromUniformBytes(b), nil
}

// ScalarFromBytes reduces an arbitrary-length byte string mod l by
// first hashing it to 64 bytes, matching the wide-reduction the
// specification requires for scalar_from_bytes.
func ScalarFromBytes(b []byte) *ristretto.Scalar {
	h := sha3.Sum512(b)
	return new(ristretto.Scalar).FromUniformBytes(h[:])
}

// scalarFromInt encodes a signed integer as a canonical scalar mod l.
// Used to encode loyalty-point quantities (and other small integers)
// as exponents for ElGamal-in-the-exponent.
func scalarFromInt(v int64) *ristretto.Scalar {
	x := big.NewInt(v)
	x.Mod(x, groupOrder)
	buf := make([]byte, 32)
	le := x.Bytes() // big-endian, no leading zeros
	for i, b := range le {
		buf[len(le)-1-i] = b
	}
	s := new(ristretto.Scalar)
	if err := s.Decode(buf); err != nil {
		// x is already reduced mod l and encoded canonically in 32
		// bytes, so Decode cannot fail; a failure here means
		// groupOrder itself is wrong.
		panic("scalarFromInt: canonical scalar rejected: " + err.Error())
	}
	return s
}

// PointBase returns the fixed group generator g.
func PointBase() *ristretto.Element {
	return new(ristretto.Element).ScalarBaseMult(scalarFromInt(1))
}

// HashToScalar derives a Fiat-Shamir challenge by hashing a domain tag
// followed by length-prefixed byte strings, then wide-reducing the
// resulting digest mod l. This is used by both ZK-EQ and ZK-DEC to
// derive their non-interactive challenge from the full transcript.
func HashToScalar(domain string, parts ...[]byte) *ristretto.Scalar {
	h := sha3.New512()
	h.Write([]byte(domain))

	var lenBuf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}

	digest := h.Sum(nil)
	return new(ristretto.Scalar).FromUniformBytes(digest)
}

// decodeElement decodes a canonical 32-byte encoding into a group
// element, failing with ErrInvalidKey if the bytes do not encode a
// valid ristretto255 element.
func decodeElement(b []byte) (*ristretto.Element, error) {
	e := new(ristretto.Element)
	if err := e.Decode(b); err != nil {
		return nil, wrapErr(ErrInvalidKey, "bytes do not decode to a valid group element", err)
	}
	return e, nil
}

// decodeScalar decodes a canonical 32-byte little-endian scalar
// encoding.
func decodeScalar(b []byte) (*ristretto.Scalar, error) {
	s := new(ristretto.Scalar)
	if err := s.Decode(b); err != nil {
		return nil, wrapErr(ErrSerialization, "bytes do not decode to a valid scalar", err)
	}
	return s, nil
}

// randomIndex draws a value uniformly from [0, n) using rejection
// sampling over 8-byte chunks read from rng, so that no index is more
// likely than any other regardless of n. Used for the server's choice
// of i_s and the client's choice of i_c (spec.md requires uniform
// randomness here -- "SystemRandom-equivalent").
func randomIndex(rng io.Reader, n uint64) (uint64, error) {
	if n == 0 {
		return 0, newErr(ErrEmptyRegistry, "cannot draw an index from an empty range")
	}
	limit := (^uint64(0) / n) * n
	var buf [8]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return 0, wrapErr(ErrRngFailure, "could not read randomness for index draw", err)
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v < limit {
			return v % n, nil
		}
	}
}

// randomMask draws the 64 random bytes used as a commitment's hiding
// mask (spec.md §9 fixes the mask length at 64 bytes).
func randomMask(rng io.Reader) ([64]byte, error) {
	var m [64]byte
	if _, err := io.ReadFull(rng, m[:]); err != nil {
		return m, wrapErr(ErrRngFailure, "could not read randomness for commitment mask", err)
	}
	return m, nil
}
