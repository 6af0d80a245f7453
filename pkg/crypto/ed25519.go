package crypto

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/hdevalence/ed25519consensus"
)

const unencryptedKeyScheme = "unencrypted:"

// Ed25519PrivateKeyFromB58 parses an edsk key, either the 32 byte seed form or the
// 64 byte expanded form. The octez "unencrypted:" URI scheme is accepted.
func Ed25519PrivateKeyFromB58(s string) (ed25519.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), unencryptedKeyScheme)
	if !strings.HasPrefix(s, "edsk") {
		return nil, fmt.Errorf("unsupported private key format, expected edsk key")
	}

	if seed, err := B58CheckDecode(s, PrefixEd25519Seed); err == nil {
		return ed25519.NewKeyFromSeed(seed), nil
	}

	raw, err := B58CheckDecode(s, PrefixEd25519SecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid edsk key: %w", err)
	}
	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(key, raw) {
		return nil, fmt.Errorf("invalid edsk key: public half does not match seed")
	}
	return key, nil
}

func EncodeEd25519PublicKey(pub ed25519.PublicKey) (string, error) {
	return B58CheckEncode(PrefixEd25519PublicKey, pub)
}

func DecodeEd25519PublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := B58CheckDecode(s, PrefixEd25519PublicKey)
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(raw), nil
}

func EncodeEd25519Signature(sig []byte) (string, error) {
	return B58CheckEncode(PrefixEd25519Signature, sig)
}

// DecodeEd25519Signature accepts both the edsig and the curve-agnostic sig encodings.
func DecodeEd25519Signature(s string) ([]byte, error) {
	if strings.HasPrefix(s, "edsig") {
		return B58CheckDecode(s, PrefixEd25519Signature)
	}
	if strings.HasPrefix(s, "sig") {
		return B58CheckDecode(s, PrefixGenericSignature)
	}
	return nil, fmt.Errorf("unsupported signature format: %q", s)
}

// Tz1FromPublicKey derives the tz1 public key hash of an Ed25519 key.
func Tz1FromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid ed25519 public key length %d", len(pub))
	}
	hash := Blake2b160(pub)
	return B58CheckEncode(PrefixTz1, hash[:])
}

// SignEd25519 signs BLAKE2b-256(msg), the digest every Tezos signer signs.
func SignEd25519(key ed25519.PrivateKey, msg []byte) []byte {
	digest := Blake2b256(msg)
	return ed25519.Sign(key, digest[:])
}

// VerifyEd25519 is the counterpart of SignEd25519.
func VerifyEd25519(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	digest := Blake2b256(msg)
	return ed25519consensus.Verify(pub, digest[:], sig)
}
