package loyalty

import (
	"crypto/rand"
	"testing"
)

func TestZKEqCompleteness(t *testing.T) {
	_, pkS, err := Keygen(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	_, pkB, err := Keygen(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	const p = int64(25)
	wS, err := encryptWithWitness(rand.Reader, pkS, -p)
	if err != nil {
		t.Fatal(err)
	}
	wB, err := encryptWithWitness(rand.Reader, pkB, p)
	if err != nil {
		t.Fatal(err)
	}

	pi, err := proveEq(rand.Reader, pkS, pkB, wS.ct, wB.ct, p, wS.r, wB.r)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyEq(pkS, pkB, wS.ct, wB.ct, pi); err != nil {
		t.Fatalf("valid ZK-EQ proof rejected: %v", err)
	}
}

func TestZKEqEncodeDecodeRoundTrip(t *testing.T) {
	_, pkS, _ := Keygen(rand.Reader)
	_, pkB, _ := Keygen(rand.Reader)
	wS, _ := encryptWithWitness(rand.Reader, pkS, -9)
	wB, _ := encryptWithWitness(rand.Reader, pkB, 9)
	pi, err := proveEq(rand.Reader, pkS, pkB, wS.ct, wB.ct, 9, wS.r, wB.r)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeEqProof(pi.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyEq(pkS, pkB, wS.ct, wB.ct, decoded); err != nil {
		t.Fatalf("decoded proof failed to verify: %v", err)
	}
}

func TestZKEqRejectsWrongMagnitude(t *testing.T) {
	_, pkS, _ := Keygen(rand.Reader)
	_, pkB, _ := Keygen(rand.Reader)
	wS, _ := encryptWithWitness(rand.Reader, pkS, -10)
	wB, _ := encryptWithWitness(rand.Reader, pkB, 11) // mismatched magnitude

	pi, err := proveEq(rand.Reader, pkS, pkB, wS.ct, wB.ct, 10, wS.r, wB.r)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyEq(pkS, pkB, wS.ct, wB.ct, pi); err == nil {
		t.Fatal("expected VerifyEq to reject mismatched-magnitude ciphertexts")
	}
}

func TestZKEqRejectsTamperedCiphertext(t *testing.T) {
	_, pkS, _ := Keygen(rand.Reader)
	_, pkB, _ := Keygen(rand.Reader)
	wS, _ := encryptWithWitness(rand.Reader, pkS, -5)
	wB, _ := encryptWithWitness(rand.Reader, pkB, 5)

	pi, err := proveEq(rand.Reader, pkS, pkB, wS.ct, wB.ct, 5, wS.r, wB.r)
	if err != nil {
		t.Fatal(err)
	}

	tampered := Ciphertext{C1: wS.ct.C1, C2: Add(wS.ct, wS.ct).C2}
	if err := VerifyEq(pkS, pkB, tampered, wB.ct, pi); err == nil {
		t.Fatal("expected VerifyEq to reject a tampered ciphertext")
	}
}

func TestZKEqRejectsSwappedProof(t *testing.T) {
	_, pkS, _ := Keygen(rand.Reader)
	_, pkB, _ := Keygen(rand.Reader)
	wS1, _ := encryptWithWitness(rand.Reader, pkS, -5)
	wB1, _ := encryptWithWitness(rand.Reader, pkB, 5)
	wS2, _ := encryptWithWitness(rand.Reader, pkS, -6)
	wB2, _ := encryptWithWitness(rand.Reader, pkB, 6)

	pi1, err := proveEq(rand.Reader, pkS, pkB, wS1.ct, wB1.ct, 5, wS1.r, wB1.r)
	if err != nil {
		t.Fatal(err)
	}
	// pi1 was produced for (wS1.ct, wB1.ct); it must not verify
	// against an unrelated pair of ciphertexts.
	if err := VerifyEq(pkS, pkB, wS2.ct, wB2.ct, pi1); err == nil {
		t.Fatal("expected VerifyEq to reject a proof bound to a different transcript")
	}
}
