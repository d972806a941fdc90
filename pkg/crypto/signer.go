// Package crypto manages Ed25519 key pairs and signs/verifies transaction
// digests. Accounts in this system are identified by a raw Ed25519 public
// key, not a derived address — there is no recovery step.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/vaultline/spotchain/pkg/types"
)

// Signer holds an Ed25519 key pair.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// GenerateKey creates a new random Ed25519 key pair.
func GenerateKey() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &Signer{privateKey: priv, publicKey: pub}, nil
}

// FromSeedHex rebuilds a Signer from a hex-encoded 32-byte seed.
func FromSeedHex(hexSeed string) (*Signer, error) {
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{privateKey: priv, publicKey: pub}, nil
}

// PubKey returns the account identifier derived from the public key.
func (s *Signer) PubKey() types.AccountPubKey {
	var out types.AccountPubKey
	copy(out[:], s.publicKey)
	return out
}

// PublicKeyHex returns the hex-encoded public key.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.publicKey)
}

// SeedHex returns the hex-encoded seed, the reconstructable half of the
// private key. Never log this outside of test fixtures.
func (s *Signer) SeedHex() string {
	return hex.EncodeToString(s.privateKey.Seed())
}

// Sign signs a 32-byte digest and returns the 64-byte Ed25519 signature.
func (s *Signer) Sign(digest [32]byte) [types.SignatureSize]byte {
	var out [types.SignatureSize]byte
	copy(out[:], ed25519.Sign(s.privateKey, digest[:]))
	return out
}

// Verify reports whether sig is a valid Ed25519 signature over digest by pub.
func Verify(pub types.AccountPubKey, digest [32]byte, sig [types.SignatureSize]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), digest[:], sig[:])
}
