package transfer

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner/inMemoryMessageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence/memory"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// countingSigner counts Sign calls and can be made to fail or to lie about its key.
type countingSigner struct {
	messageSigner.IMessageSigner
	signs     atomic.Int32
	signErr   error
	publicKey string
}

func (s *countingSigner) PublicKey(ctx context.Context) (string, error) {
	if s.publicKey != "" {
		return s.publicKey, nil
	}
	return s.IMessageSigner.PublicKey(ctx)
}

func (s *countingSigner) Sign(ctx context.Context, data []byte) (string, error) {
	s.signs.Add(1)
	if s.signErr != nil {
		return "", s.signErr
	}
	return s.IMessageSigner.Sign(ctx, data)
}

func newAliceSigner(t *testing.T) *countingSigner {
	t.Helper()
	inner, err := inMemoryMessageSigner.NewInMemoryMessageSignerFromB58(aliceSecretKey, zaptest.NewLogger(t))
	require.NoError(t, err)
	return &countingSigner{IMessageSigner: inner}
}

func nonceOf(n uint64) *uint64 { return &n }

func TestNewClient(t *testing.T) {
	l := zaptest.NewLogger(t)

	_, err := NewClient(nil, nil, nil, nil, nil, l)
	assert.Error(t, err)

	_, err = NewClient(newAliceSigner(t), nil, nil, nil, &ClientConfig{Prefix: DefaultPrefix, VerifyPacking: true}, l)
	assert.Error(t, err)

	c, err := NewClient(newAliceSigner(t), nil, nil, nil, nil, l)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, c.config.Prefix)
}

func TestClient_Prepare(t *testing.T) {
	signer := newAliceSigner(t)
	c, err := NewClient(signer, nil, nil, nil, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	token := types.FA12{Address: testKT1(t, 0x10)}
	prepared, err := c.Prepare(context.Background(), &Request{
		Token:       token,
		Destination: bobAddress,
		Amount:      "123456789012345678901234567890",
		Nonce:       nonceOf(323),
	})
	require.NoError(t, err)

	assert.Equal(t, aliceAddress, prepared.Sender)
	assert.Equal(t, uint64(323), prepared.Nonce)
	assert.Equal(t, HashToSignHex(323, prepared.Message.Inner.Content), prepared.Hash)
	assert.Equal(t, hex.EncodeToString(prepared.Payload), prepared.PayloadHex)
	assert.Regexp(t, "^55", prepared.PayloadHex)
	assert.EqualValues(t, 1, signer.signs.Load())

	parsed, err := ParseMessage(prepared.PayloadHex, DefaultPrefix)
	require.NoError(t, err)
	assert.Equal(t, prepared.Message, *parsed)
	assert.Equal(t, "123456789012345678901234567890", parsed.Inner.Content.Amount)
	require.NoError(t, Verify(parsed))

	again, err := c.Prepare(context.Background(), &Request{
		Token:       token,
		Destination: bobAddress,
		Amount:      "123456789012345678901234567890",
		Nonce:       nonceOf(323),
	})
	require.NoError(t, err)
	assert.Equal(t, prepared.PayloadHex, again.PayloadHex, "same inputs give the same payload")
}

func TestClient_Prepare_RejectsBeforeSigning(t *testing.T) {
	signer := newAliceSigner(t)
	c, err := NewClient(signer, nil, nil, nil, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	kt1 := testKT1(t, 0x11)

	requests := map[string]*Request{
		"empty destination": {Token: types.FA12{Address: kt1}, Destination: "", Amount: "1", Nonce: nonceOf(0)},
		"negative fa2 id":   {Token: types.FA2{Address: kt1, TokenID: big.NewInt(-1)}, Destination: bobAddress, Amount: "1", Nonce: nonceOf(0)},
		"bad amount":        {Token: types.FA12{Address: kt1}, Destination: bobAddress, Amount: "ten", Nonce: nonceOf(0)},
		"no nonce, no journal": {Token: types.FA12{Address: kt1}, Destination: bobAddress, Amount: "1"},
	}
	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Prepare(context.Background(), req)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.EqualValues(t, 0, signer.signs.Load())

	_, err = c.Prepare(context.Background(), nil)
	assert.True(t, IsValidation(err))
}

func TestClient_Prepare_SignerFailures(t *testing.T) {
	req := &Request{Token: types.FA12{Address: testKT1(t, 0x12)}, Destination: bobAddress, Amount: "1", Nonce: nonceOf(1)}

	t.Run("sign error", func(t *testing.T) {
		signer := newAliceSigner(t)
		signer.signErr = fmt.Errorf("signer offline")
		c, err := NewClient(signer, nil, nil, nil, nil, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = c.Prepare(context.Background(), req)
		require.Error(t, err)
		assert.True(t, IsRemote(err))
		assert.ErrorIs(t, err, signer.signErr)
	})

	t.Run("signature from another key", func(t *testing.T) {
		signer := newAliceSigner(t)
		other := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
		otherSigner, err := inMemoryMessageSigner.NewInMemoryMessageSigner(other, zaptest.NewLogger(t))
		require.NoError(t, err)
		signer.publicKey, err = otherSigner.PublicKey(context.Background())
		require.NoError(t, err)

		c, err := NewClient(signer, nil, nil, nil, nil, zaptest.NewLogger(t))
		require.NoError(t, err)
		_, err = c.Prepare(context.Background(), req)
		require.Error(t, err)
		assert.True(t, IsRemote(err))
	})
}

func TestClient_Prepare_VerifyPacking(t *testing.T) {
	token := types.NewFA2(testKT1(t, 0x13), 3)
	packed, err := michelson.PackToken(token)
	require.NoError(t, err)

	mock := contractCaller.NewMockContractCaller()
	c, err := NewClient(newAliceSigner(t), mock, mock, nil, &ClientConfig{Prefix: DefaultPrefix, VerifyPacking: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	req := &Request{Token: token, Destination: bobAddress, Amount: "9", Nonce: nonceOf(0)}

	mock.PackOverride = packed
	_, err = c.Prepare(context.Background(), req)
	require.NoError(t, err)

	mock.PackOverride = []byte{0x05, 0x00, 0x00}
	_, err = c.Prepare(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsEncoding(err))
}

func TestClient_Send(t *testing.T) {
	mock := contractCaller.NewMockContractCaller()
	journal := memory.NewMemoryJournal(zaptest.NewLogger(t))
	c, err := NewClient(newAliceSigner(t), mock, nil, journal, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	req := &Request{Token: types.FA12{Address: testKT1(t, 0x14)}, Destination: bobAddress, Amount: "50"}

	first, err := c.Send(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first.Nonce)
	assert.Equal(t, mock.OperationHash, first.OperationHash)
	assert.NotEmpty(t, first.RecordID)

	second, err := c.Send(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.Nonce)

	require.Len(t, mock.Submitted, 2)
	assert.Equal(t, first.Payload, mock.Submitted[0])
	assert.Equal(t, second.Payload, mock.Submitted[1])

	record, err := journal.LoadSubmission(first.RecordID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, aliceAddress, record.Sender)
	assert.Equal(t, first.Hash, record.Hash)
	assert.Equal(t, first.PayloadHex, record.MessageHex)
	assert.Equal(t, bobAddress, record.Destination)
	assert.Equal(t, "50", record.Amount)
	assert.Equal(t, mock.OperationHash, record.OperationHash)

	next, err := c.NextNonce(aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

func TestClient_Send_RefusesUsedNonce(t *testing.T) {
	mock := contractCaller.NewMockContractCaller()
	journal := memory.NewMemoryJournal(zaptest.NewLogger(t))
	c, err := NewClient(newAliceSigner(t), mock, nil, journal, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	req := &Request{Token: types.FA12{Address: testKT1(t, 0x15)}, Destination: bobAddress, Amount: "1", Nonce: nonceOf(4)}
	_, err = c.Send(ctx, req)
	require.NoError(t, err)

	for _, n := range []uint64{0, 4} {
		req.Nonce = nonceOf(n)
		_, err = c.Send(ctx, req)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	}
	assert.Len(t, mock.Submitted, 1)

	req.Nonce = nonceOf(5)
	_, err = c.Send(ctx, req)
	require.NoError(t, err)
	assert.Len(t, mock.Submitted, 2)
}

func TestClient_RequireNonce(t *testing.T) {
	ctx := context.Background()
	kt1 := testKT1(t, 0x18)
	cfg := &ClientConfig{Prefix: DefaultPrefix, RequireNonce: true}

	// each run starts from an empty in-memory journal
	for run := 0; run < 2; run++ {
		signer := newAliceSigner(t)
		mock := contractCaller.NewMockContractCaller()
		journal := memory.NewMemoryJournal(zaptest.NewLogger(t))
		c, err := NewClient(signer, mock, nil, journal, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		req := &Request{Token: types.FA12{Address: kt1}, Destination: bobAddress, Amount: "1"}
		_, err = c.Prepare(ctx, req)
		require.Error(t, err)
		assert.True(t, IsValidation(err), "got %v", err)

		_, err = c.Send(ctx, req)
		require.Error(t, err)
		assert.True(t, IsValidation(err), "got %v", err)

		assert.EqualValues(t, 0, signer.signs.Load())
		assert.Empty(t, mock.Submitted)
	}

	c, err := NewClient(newAliceSigner(t), nil, nil, memory.NewMemoryJournal(zaptest.NewLogger(t)), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	prepared, err := c.Prepare(ctx, &Request{Token: types.FA12{Address: kt1}, Destination: bobAddress, Amount: "1", Nonce: nonceOf(7)})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), prepared.Nonce)
}

func TestClient_Send_SubmitFailure(t *testing.T) {
	mock := contractCaller.NewMockContractCaller()
	mock.Err = fmt.Errorf("node rejected operation")
	journal := memory.NewMemoryJournal(zaptest.NewLogger(t))
	c, err := NewClient(newAliceSigner(t), mock, nil, journal, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = c.Send(context.Background(), &Request{Token: types.FA12{Address: testKT1(t, 0x16)}, Destination: bobAddress, Amount: "1"})
	require.Error(t, err)
	assert.True(t, IsRemote(err))
	assert.ErrorIs(t, err, mock.Err)

	_, found, err := journal.GetLastNonce(aliceAddress)
	require.NoError(t, err)
	assert.False(t, found, "failed submissions are not recorded")
}

func TestClient_Send_WithoutJournalOrSubmitter(t *testing.T) {
	c, err := NewClient(newAliceSigner(t), nil, nil, nil, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	req := &Request{Token: types.FA12{Address: testKT1(t, 0x17)}, Destination: bobAddress, Amount: "1", Nonce: nonceOf(0)}
	_, err = c.Send(context.Background(), req)
	assert.Error(t, err)

	mock := contractCaller.NewMockContractCaller()
	c, err = NewClient(newAliceSigner(t), mock, nil, nil, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	result, err := c.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.RecordID)
	assert.Len(t, mock.Submitted, 1)
}
