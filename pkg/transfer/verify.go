package transfer

import (
	"fmt"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// Verify checks msg the way the rollup inbox does: the signature must be a valid Ed25519
// signature by pkey over the hash of (nonce, content).
func Verify(msg *types.TransferMessage) error {
	if msg == nil {
		return newValidationError("message", "message is nil")
	}
	pub, err := crypto.DecodeEd25519PublicKey(msg.PublicKey.Ed25519)
	if err != nil {
		return newValidationError("public key", "%v", err)
	}
	sig, err := crypto.DecodeEd25519Signature(msg.Signature.Ed25519)
	if err != nil {
		return newValidationError("signature", "%v", err)
	}
	digest := HashToSign(msg.Inner.Nonce, msg.Inner.Content)
	if !crypto.VerifyEd25519(pub, digest[:], sig) {
		return newValidationError("signature", "signature does not match public key and content")
	}
	return nil
}

// Sender returns the tz1 address of the key that signed msg.
func Sender(msg *types.TransferMessage) (string, error) {
	pub, err := crypto.DecodeEd25519PublicKey(msg.PublicKey.Ed25519)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	return crypto.Tz1FromPublicKey(pub)
}
