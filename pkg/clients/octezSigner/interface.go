package octezSigner

import (
	"context"
	"net/http"
)

// IOctezSigner abstracts the octez-signer HTTP service so that signing keys never
// have to be loaded into this process.
type IOctezSigner interface {
	// SetHttpClient allows setting a custom HTTP client, e.g. in tests.
	SetHttpClient(client *http.Client)

	// PublicKey returns the public key of the account identified by pkh (GET /keys/<pkh>).
	PublicKey(ctx context.Context, pkh string) (string, error)

	// Sign signs data with the key of pkh (POST /keys/<pkh>). The signer hashes data with
	// BLAKE2b-256 before signing, like every Tezos signer.
	Sign(ctx context.Context, pkh string, data []byte) (string, error)

	// AuthorizedKeys lists the keys allowed to request signatures, when the signer
	// requires authentication (GET /authorized_keys).
	AuthorizedKeys(ctx context.Context) ([]string, error)
}

// Compile-time check to ensure Client implements IOctezSigner
var _ IOctezSigner = (*Client)(nil)
