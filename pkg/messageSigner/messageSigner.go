package messageSigner

import "context"

// IMessageSigner signs transfer digests for one Ed25519 account.
type IMessageSigner interface {
	// PublicKey returns the base58 edpk of the signing account.
	PublicKey(ctx context.Context) (string, error)

	// Address returns the tz1 address of the signing account.
	Address(ctx context.Context) (string, error)

	// Sign returns the base58 signature of data. Like every Tezos signer, data is hashed
	// with BLAKE2b-256 before the Ed25519 signature is computed.
	Sign(ctx context.Context, data []byte) (string, error)
}
