package remoteMessageSigner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner"
)

// RemoteMessageSigner delegates signing of one account to an octez-signer.
type RemoteMessageSigner struct {
	client  octezSigner.IOctezSigner
	address string
	logger  *zap.Logger

	mu        sync.Mutex
	publicKey string
}

var _ messageSigner.IMessageSigner = (*RemoteMessageSigner)(nil)

// NewRemoteMessageSigner signs as address, which must be a tz1 account known to the signer.
func NewRemoteMessageSigner(client octezSigner.IOctezSigner, address string, logger *zap.Logger) (*RemoteMessageSigner, error) {
	if client == nil {
		return nil, fmt.Errorf("signer client cannot be nil")
	}
	if _, err := crypto.B58CheckDecode(address, crypto.PrefixTz1); err != nil {
		return nil, fmt.Errorf("remote signing account must be a tz1 address: %w", err)
	}
	return &RemoteMessageSigner{
		client:  client,
		address: address,
		logger:  logger,
	}, nil
}

// PublicKey is fetched once and checked against the configured address.
func (s *RemoteMessageSigner) PublicKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publicKey != "" {
		return s.publicKey, nil
	}

	publicKey, err := s.client.PublicKey(ctx, s.address)
	if err != nil {
		return "", err
	}
	pub, err := crypto.DecodeEd25519PublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("signer returned an unsupported public key: %w", err)
	}
	derived, err := crypto.Tz1FromPublicKey(pub)
	if err != nil {
		return "", err
	}
	if derived != s.address {
		return "", fmt.Errorf("signer public key belongs to %s, expected %s", derived, s.address)
	}

	s.logger.Sugar().Infow("Loaded public key from remote signer", "address", s.address, "publicKey", publicKey)
	s.publicKey = publicKey
	return publicKey, nil
}

func (s *RemoteMessageSigner) Address(_ context.Context) (string, error) {
	return s.address, nil
}

func (s *RemoteMessageSigner) Sign(ctx context.Context, data []byte) (string, error) {
	return s.client.Sign(ctx, s.address, data)
}
