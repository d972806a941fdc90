package crypto

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := [32]byte{1, 2, 3, 4}
	sig := signer.Sign(digest)
	if !Verify(signer.PubKey(), digest, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := [32]byte{1, 2, 3, 4}
	sig := signer.Sign(digest)
	tampered := digest
	tampered[0] ^= 0xff
	if Verify(signer.PubKey(), tampered, sig) {
		t.Fatalf("expected tampered digest to fail verification")
	}
}

func TestFromSeedHexReproducesKey(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := FromSeedHex(signer.SeedHex())
	if err != nil {
		t.Fatalf("from seed hex: %v", err)
	}
	if signer.PubKey() != restored.PubKey() {
		t.Fatalf("restored key does not match original")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	b, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := [32]byte{9}
	sig := a.Sign(digest)
	if Verify(b.PubKey(), digest, sig) {
		t.Fatalf("expected verification with wrong key to fail")
	}
}
