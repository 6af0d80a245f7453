package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner/inMemoryMessageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

func signedAliceMessage(t *testing.T, nonce uint64) types.TransferMessage {
	t.Helper()
	signer, err := inMemoryMessageSigner.NewInMemoryMessageSignerFromB58(aliceSecretKey, zaptest.NewLogger(t))
	require.NoError(t, err)

	content := testContent()
	digest := HashToSign(nonce, content)
	sig, err := signer.Sign(context.Background(), digest[:])
	require.NoError(t, err)
	return NewTransferMessage(alicePublicKey, sig, nonce, content)
}

func TestVerify(t *testing.T) {
	msg := signedAliceMessage(t, 5)
	require.NoError(t, Verify(&msg))

	sender, err := Sender(&msg)
	require.NoError(t, err)
	assert.Equal(t, aliceAddress, sender)
}

func TestVerify_SurvivesSerialization(t *testing.T) {
	msg := signedAliceMessage(t, 6)
	payload, err := SerializeMessage(MessageOptions{
		PublicKey: msg.PublicKey.Ed25519,
		Signature: msg.Signature.Ed25519,
		Nonce:     msg.Inner.Nonce,
		Content:   msg.Inner.Content,
		Prefix:    DefaultPrefix,
	})
	require.NoError(t, err)

	parsed, err := ParseMessage(payload, DefaultPrefix)
	require.NoError(t, err)
	assert.NoError(t, Verify(parsed))
}

func TestVerify_Tampered(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.TransferMessage)
	}{
		{"nonce", func(m *types.TransferMessage) { m.Inner.Nonce++ }},
		{"amount", func(m *types.TransferMessage) { m.Inner.Content.Amount = "1001" }},
		{"destination", func(m *types.TransferMessage) { m.Inner.Content.Destination = types.Tz1{Addr: aliceAddress} }},
		{"token", func(m *types.TransferMessage) { m.Inner.Content.Token = types.TokenBytes{0x05} }},
		{"public key", func(m *types.TransferMessage) { m.PublicKey.Ed25519 = "not-a-key" }},
		{"signature", func(m *types.TransferMessage) { m.Signature.Ed25519 = "edsig" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := signedAliceMessage(t, 5)
			tt.mutate(&msg)
			err := Verify(&msg)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	assert.Error(t, Verify(nil))
}
