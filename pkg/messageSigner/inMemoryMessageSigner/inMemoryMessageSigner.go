package inMemoryMessageSigner

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner"
)

// InMemoryMessageSigner signs with an Ed25519 key held in process memory.
type InMemoryMessageSigner struct {
	logger     *zap.Logger
	privateKey ed25519.PrivateKey
	publicKey  string
	address    string
}

var _ messageSigner.IMessageSigner = (*InMemoryMessageSigner)(nil)

// NewInMemoryMessageSignerFromB58 loads an edsk secret key (optionally "unencrypted:" prefixed).
func NewInMemoryMessageSignerFromB58(secretKey string, logger *zap.Logger) (*InMemoryMessageSigner, error) {
	key, err := crypto.Ed25519PrivateKeyFromB58(secretKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewInMemoryMessageSigner(key, logger)
}

func NewInMemoryMessageSigner(key ed25519.PrivateKey, logger *zap.Logger) (*InMemoryMessageSigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	pub := key.Public().(ed25519.PublicKey)

	publicKey, err := crypto.EncodeEd25519PublicKey(pub)
	if err != nil {
		return nil, err
	}
	address, err := crypto.Tz1FromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	return &InMemoryMessageSigner{
		logger:     logger,
		privateKey: key,
		publicKey:  publicKey,
		address:    address,
	}, nil
}

func (s *InMemoryMessageSigner) PublicKey(_ context.Context) (string, error) {
	return s.publicKey, nil
}

func (s *InMemoryMessageSigner) Address(_ context.Context) (string, error) {
	return s.address, nil
}

// Sign data is the raw bytes to sign
func (s *InMemoryMessageSigner) Sign(_ context.Context, data []byte) (string, error) {
	sig := crypto.SignEd25519(s.privateKey, data)
	return crypto.EncodeEd25519Signature(sig)
}
