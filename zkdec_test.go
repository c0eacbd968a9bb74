package loyalty

import (
	"crypto/rand"
	"testing"
)

func TestZKDecCompleteness(t *testing.T) {
	sk, pk, err := Keygen(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	ct, err := Encrypt(rand.Reader, pk, -37)
	if err != nil {
		t.Fatal(err)
	}

	pi, err := proveDec(rand.Reader, sk, pk, ct, -37)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyDec(pk, ct, -37, pi); err != nil {
		t.Fatalf("valid ZK-DEC proof rejected: %v", err)
	}
}

func TestZKDecEncodeDecodeRoundTrip(t *testing.T) {
	sk, pk, _ := Keygen(rand.Reader)
	ct, _ := Encrypt(rand.Reader, pk, 12)
	pi, err := proveDec(rand.Reader, sk, pk, ct, 12)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeDecProof(pi.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyDec(pk, ct, 12, decoded); err != nil {
		t.Fatalf("decoded proof failed to verify: %v", err)
	}
}

func TestZKDecRejectsWrongPlaintext(t *testing.T) {
	sk, pk, _ := Keygen(rand.Reader)
	ct, _ := Encrypt(rand.Reader, pk, 12)
	pi, err := proveDec(rand.Reader, sk, pk, ct, 12)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyDec(pk, ct, 13, pi); err == nil {
		t.Fatal("expected VerifyDec to reject a claimed plaintext that was not proved")
	}
}

func TestZKDecRejectsWrongKey(t *testing.T) {
	sk, pk, _ := Keygen(rand.Reader)
	_, otherPK, _ := Keygen(rand.Reader)
	ct, _ := Encrypt(rand.Reader, pk, 5)
	pi, err := proveDec(rand.Reader, sk, pk, ct, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyDec(otherPK, ct, 5, pi); err == nil {
		t.Fatal("expected VerifyDec to reject a proof checked against the wrong public key")
	}
}

func TestZKDecRejectsTamperedCiphertext(t *testing.T) {
	sk, pk, _ := Keygen(rand.Reader)
	ct, _ := Encrypt(rand.Reader, pk, 5)
	pi, err := proveDec(rand.Reader, sk, pk, ct, 5)
	if err != nil {
		t.Fatal(err)
	}
	tampered := Ciphertext{C1: ct.C1, C2: Add(ct, ct).C2}
	if err := VerifyDec(pk, tampered, 5, pi); err == nil {
		t.Fatal("expected VerifyDec to reject a tampered ciphertext")
	}
}
