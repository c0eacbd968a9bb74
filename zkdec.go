package loyalty

// ZK-DEC (C6): a Chaum-Pedersen style non-interactive proof that a
// claimed plaintext m is the correct decryption of a ciphertext under
// a committed public key, without revealing the secret key. Shape
// grounded on the vocdoni davinci-node decryption proof in the
// example pack, retargeted onto ristretto255.

import (
	"io"

	ristretto "github.com/gtank/ristretto255"
)

const zkDecDomain = "ZK_DEC"

// DecProof is the (T1, T2, z) transcript of a ZK-DEC proof.
type DecProof struct {
	T1 *ristretto.Element
	T2 *ristretto.Element
	Z  *ristretto.Scalar
}

// Encode serializes the proof as T1 || T2 || z (96 bytes). Note this
// differs from spec.md §6's wire summary of "(c, z) = 64 bytes" --
// this implementation recomputes c from (T1, T2) rather than
// transmitting it, so the commitments themselves are embedded instead
// of a derived challenge; either transcript layout proves the same
// statement (spec.md §9: "any implementation that proves the same
// statement is acceptable").
func (p DecProof) Encode() []byte {
	out := make([]byte, 0, 96)
	out = append(out, p.T1.Encode(nil)...)
	out = append(out, p.T2.Encode(nil)...)
	out = append(out, p.Z.Encode(nil)...)
	return out
}

// DecodeDecProof parses the wire format produced by DecProof.Encode.
func DecodeDecProof(b []byte) (DecProof, error) {
	if len(b) != 96 {
		return DecProof{}, newErr(ErrSerialization, "dec proof must be 96 bytes")
	}
	t1, err := decodeElement(b[0:32])
	if err != nil {
		return DecProof{}, err
	}
	t2, err := decodeElement(b[32:64])
	if err != nil {
		return DecProof{}, err
	}
	z, err := decodeScalar(b[64:96])
	if err != nil {
		return DecProof{}, err
	}
	return DecProof{T1: t1, T2: t2, Z: z}, nil
}

// proveDec proves that m is the decryption of ct under sk, where
// pk = g^sk.
func proveDec(rng io.Reader, sk *ristretto.Scalar, pk *ristretto.Element, ct Ciphertext, m int64) (DecProof, error) {
	beta, err := ScalarRandom(rng)
	if err != nil {
		return DecProof{}, err
	}

	T1 := new(ristretto.Element).ScalarBaseMult(beta)
	T2 := new(ristretto.Element).ScalarMult(beta, ct.C1)

	c := HashToScalar(zkDecDomain,
		pk.Encode(nil), ct.C1.Encode(nil), ct.C2.Encode(nil),
		scalarFromInt(m).Encode(nil),
		T1.Encode(nil), T2.Encode(nil),
	)

	z := new(ristretto.Scalar).Add(beta, new(ristretto.Scalar).Multiply(c, sk))
	return DecProof{T1: T1, T2: T2, Z: z}, nil
}

// VerifyDec verifies a ZK-DEC proof that m is the decryption of ct
// under pk. Returns ErrInvalidProofDec on any mismatch.
func VerifyDec(pk *ristretto.Element, ct Ciphertext, m int64, pi DecProof) error {
	c := HashToScalar(zkDecDomain,
		pk.Encode(nil), ct.C1.Encode(nil), ct.C2.Encode(nil),
		scalarFromInt(m).Encode(nil),
		pi.T1.Encode(nil), pi.T2.Encode(nil),
	)

	// Check g^z == T1 * pk^c
	lhs1 := new(ristretto.Element).ScalarBaseMult(pi.Z)
	rhs1 := new(ristretto.Element).Add(pi.T1, new(ristretto.Element).ScalarMult(c, pk))
	if lhs1.Equal(rhs1) != 1 {
		return newErr(ErrInvalidProofDec, "ZK-DEC first verification equation failed")
	}

	// Check A^z == T2 * (B * g^-m)^c, where A = ct.C1, B = ct.C2.
	negM := new(ristretto.Element).ScalarBaseMult(new(ristretto.Scalar).Negate(scalarFromInt(m)))
	D := new(ristretto.Element).Add(ct.C2, negM)
	lhs2 := new(ristretto.Element).ScalarMult(pi.Z, ct.C1)
	rhs2 := new(ristretto.Element).Add(pi.T2, new(ristretto.Element).ScalarMult(c, D))
	if lhs2.Equal(rhs2) != 1 {
		return newErr(ErrInvalidProofDec, "ZK-DEC second verification equation failed")
	}

	return nil
}
