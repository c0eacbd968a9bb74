package loyalty

// ElGamal in the exponent (C2). Plaintext m is encoded as g^m so that
// ciphertext addition corresponds to plaintext addition; decryption
// requires a bounded discrete-log search.

import (
	"io"

	ristretto "github.com/gtank/ristretto255"
)

// Ciphertext is a pair of group elements (C1, C2) with
// C1 = g^r, C2 = g^m * pk^r.
type Ciphertext struct {
	C1 *ristretto.Element
	C2 *ristretto.Element
}

// encryptionWitness carries the randomness used by Encrypt alongside
// the resulting ciphertext, for provers that need to know r. It is
// never serialized onto the wire; only Ciphertext is public.
type encryptionWitness struct {
	ct Ciphertext
	r  *ristretto.Scalar
}

// Keygen samples sk uniformly and computes pk = g^sk.
func Keygen(rng io.Reader) (sk *ristretto.Scalar, pk *ristretto.Element, err error) {
	sk, err = ScalarRandom(rng)
	if err != nil {
		return nil, nil, err
	}
	pk = new(ristretto.Element).ScalarBaseMult(sk)
	return sk, pk, nil
}

// Encrypt encrypts m under pk, sampling fresh randomness from rng.
func Encrypt(rng io.Reader, pk *ristretto.Element, m int64) (Ciphertext, error) {
	r, err := ScalarRandom(rng)
	if err != nil {
		return Ciphertext{}, err
	}
	return encryptWithRandomness(pk, m, r), nil
}

// encryptWithWitness encrypts m under pk and also returns the
// randomness r used, for callers (the ZK provers) that need it. The
// public Encrypt above deliberately does not expose r.
func encryptWithWitness(rng io.Reader, pk *ristretto.Element, m int64) (encryptionWitness, error) {
	r, err := ScalarRandom(rng)
	if err != nil {
		return encryptionWitness{}, err
	}
	return encryptionWitness{ct: encryptWithRandomness(pk, m, r), r: r}, nil
}

func encryptWithRandomness(pk *ristretto.Element, m int64, r *ristretto.Scalar) Ciphertext {
	c1 := new(ristretto.Element).ScalarBaseMult(r)
	gm := new(ristretto.Element).ScalarBaseMult(scalarFromInt(m))
	pkr := new(ristretto.Element).ScalarMult(r, pk)
	c2 := new(ristretto.Element).Add(gm, pkr)
	return Ciphertext{C1: c1, C2: c2}
}

// Add computes the componentwise group-element sum of two
// ciphertexts, which decrypts to the sum of their plaintexts. Neither
// input is mutated.
func Add(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		C1: new(ristretto.Element).Add(a.C1, b.C1),
		C2: new(ristretto.Element).Add(a.C2, b.C2),
	}
}

// Decrypt recovers m from ct under sk by brute-force discrete log over
// the window {0,...,mMax} U {-1,...,-mMax}. Fails with
// ErrBalanceOutOfRange if no m in that window decrypts ct.
func Decrypt(sk *ristretto.Scalar, ct Ciphertext, mMax uint32) (int64, error) {
	negSk := new(ristretto.Scalar).Negate(sk)
	skInvTerm := new(ristretto.Element).ScalarMult(negSk, ct.C1)
	M := new(ristretto.Element).Add(ct.C2, skInvTerm) // M = C2 * C1^(-sk)

	identity := new(ristretto.Element).ScalarBaseMult(new(ristretto.Scalar).Zero())
	if M.Equal(identity) == 1 {
		return 0, nil
	}

	g := PointBase()
	negG := new(ristretto.Element).Negate(g)

	pos := new(ristretto.Element).ScalarBaseMult(new(ristretto.Scalar).Zero())
	neg := new(ristretto.Element).ScalarBaseMult(new(ristretto.Scalar).Zero())
	for i := int64(1); i <= int64(mMax); i++ {
		pos.Add(pos, g)
		if pos.Equal(M) == 1 {
			return i, nil
		}
		neg.Add(neg, negG)
		if neg.Equal(M) == 1 {
			return -i, nil
		}
	}

	return 0, newErr(ErrBalanceOutOfRange, "decryption outside the configured M_MAX window")
}
