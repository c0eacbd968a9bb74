package loyalty

// ZK-EQ (C5): a non-interactive zero-knowledge proof that two
// ciphertexts, encrypted under distinct public keys, encrypt the same
// magnitude with opposite sign. This is the proof the shopper's
// client produces in the final transaction step so the server can
// verify the debit and credit it is about to apply are consistent,
// without learning p, r_s, or r_b.

import (
	"io"

	ristretto "github.com/gtank/ristretto255"
)

const zkEqDomain = "ZK_EQ"

// EqProof is the (c, z_p, z_rs, z_rb) transcript of a ZK-EQ proof.
type EqProof struct {
	C   *ristretto.Scalar
	Zp  *ristretto.Scalar
	Zrs *ristretto.Scalar
	Zrb *ristretto.Scalar
}

// Encode serializes the proof as four canonical 32-byte scalars:
// c || z_p || z_rs || z_rb.
func (p EqProof) Encode() []byte {
	out := make([]byte, 0, 128)
	out = append(out, p.C.Encode(nil)...)
	out = append(out, p.Zp.Encode(nil)...)
	out = append(out, p.Zrs.Encode(nil)...)
	out = append(out, p.Zrb.Encode(nil)...)
	return out
}

// DecodeEqProof parses the wire format produced by EqProof.Encode.
func DecodeEqProof(b []byte) (EqProof, error) {
	if len(b) != 128 {
		return EqProof{}, newErr(ErrSerialization, "eq proof must be 128 bytes")
	}
	c, err := decodeScalar(b[0:32])
	if err != nil {
		return EqProof{}, err
	}
	zp, err := decodeScalar(b[32:64])
	if err != nil {
		return EqProof{}, err
	}
	zrs, err := decodeScalar(b[64:96])
	if err != nil {
		return EqProof{}, err
	}
	zrb, err := decodeScalar(b[96:128])
	if err != nil {
		return EqProof{}, err
	}
	return EqProof{C: c, Zp: zp, Zrs: zrs, Zrb: zrb}, nil
}

// proveEq proves that ctS = Encrypt(pkS, -p; rS) and
// ctB = Encrypt(pkB, p; rB) encrypt the same magnitude p with opposite
// sign, given knowledge of p, rS, and rB.
func proveEq(rng io.Reader, pkS, pkB *ristretto.Element, ctS, ctB Ciphertext, p int64, rS, rB *ristretto.Scalar) (EqProof, error) {
	alpha, err := ScalarRandom(rng)
	if err != nil {
		return EqProof{}, err
	}
	betaS, err := ScalarRandom(rng)
	if err != nil {
		return EqProof{}, err
	}
	betaB, err := ScalarRandom(rng)
	if err != nil {
		return EqProof{}, err
	}

	negAlpha := new(ristretto.Scalar).Negate(alpha)

	Ts1 := new(ristretto.Element).ScalarBaseMult(betaS)
	Ts2 := new(ristretto.Element).Add(
		new(ristretto.Element).ScalarBaseMult(negAlpha),
		new(ristretto.Element).ScalarMult(betaS, pkS),
	)
	Tb1 := new(ristretto.Element).ScalarBaseMult(betaB)
	Tb2 := new(ristretto.Element).Add(
		new(ristretto.Element).ScalarBaseMult(alpha),
		new(ristretto.Element).ScalarMult(betaB, pkB),
	)

	c := HashToScalar(zkEqDomain,
		pkS.Encode(nil), pkB.Encode(nil),
		ctS.C1.Encode(nil), ctS.C2.Encode(nil),
		ctB.C1.Encode(nil), ctB.C2.Encode(nil),
		Ts1.Encode(nil), Ts2.Encode(nil), Tb1.Encode(nil), Tb2.Encode(nil),
	)

	zp := new(ristretto.Scalar).Add(alpha, new(ristretto.Scalar).Multiply(c, scalarFromInt(p)))
	zrs := new(ristretto.Scalar).Add(betaS, new(ristretto.Scalar).Multiply(c, rS))
	zrb := new(ristretto.Scalar).Add(betaB, new(ristretto.Scalar).Multiply(c, rB))

	return EqProof{C: c, Zp: zp, Zrs: zrs, Zrb: zrb}, nil
}

// VerifyEq verifies a ZK-EQ proof against the public ciphertexts and
// keys. Returns ErrInvalidProofEq on any mismatch.
func VerifyEq(pkS, pkB *ristretto.Element, ctS, ctB Ciphertext, pi EqProof) error {
	negC := new(ristretto.Scalar).Negate(pi.C)
	negZp := new(ristretto.Scalar).Negate(pi.Zp)

	Ts1p := new(ristretto.Element).Add(
		new(ristretto.Element).ScalarBaseMult(pi.Zrs),
		new(ristretto.Element).ScalarMult(negC, ctS.C1),
	)
	Ts2p := new(ristretto.Element).Add(
		new(ristretto.Element).Add(
			new(ristretto.Element).ScalarBaseMult(negZp),
			new(ristretto.Element).ScalarMult(pi.Zrs, pkS),
		),
		new(ristretto.Element).ScalarMult(negC, ctS.C2),
	)
	Tb1p := new(ristretto.Element).Add(
		new(ristretto.Element).ScalarBaseMult(pi.Zrb),
		new(ristretto.Element).ScalarMult(negC, ctB.C1),
	)
	Tb2p := new(ristretto.Element).Add(
		new(ristretto.Element).Add(
			new(ristretto.Element).ScalarBaseMult(pi.Zp),
			new(ristretto.Element).ScalarMult(pi.Zrb, pkB),
		),
		new(ristretto.Element).ScalarMult(negC, ctB.C2),
	)

	cPrime := HashToScalar(zkEqDomain,
		pkS.Encode(nil), pkB.Encode(nil),
		ctS.C1.Encode(nil), ctS.C2.Encode(nil),
		ctB.C1.Encode(nil), ctB.C2.Encode(nil),
		Ts1p.Encode(nil), Ts2p.Encode(nil), Tb1p.Encode(nil), Tb2p.Encode(nil),
	)

	if cPrime.Equal(pi.C) != 1 {
		return newErr(ErrInvalidProofEq, "ZK-EQ challenge recomputation mismatch")
	}
	return nil
}
