package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tezos-bridge/rollup-bridge-go/internal/tests"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller/caller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/logger"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner/inMemoryMessageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence/memory"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/transfer"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

const destination = "tz1aSkwEot3L2kmUvcoxzjMomb9mvBNuzFK6"

func newSandboxCaller(t *testing.T, cfg *tests.SandboxConfig) *caller.ContractCaller {
	t.Helper()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	client := octezClient.NewClient(&octezClient.Config{
		Binary:   cfg.OctezClient,
		Endpoint: cfg.Endpoint,
		BaseDir:  cfg.BaseDir,
		Wait:     "none",
	}, nil, l)
	contractCaller, err := caller.NewContractCaller(client, &caller.Config{Source: cfg.Source, BurnCap: "1"}, l)
	require.NoError(t, err)
	return contractCaller
}

// Test_SandboxTransfer submits signed transfers to a running sandbox and checks that the
// node packs tokens exactly like the local encoder.
func Test_SandboxTransfer(t *testing.T) {
	cfg := tests.ReadSandboxConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	require.NoError(t, tests.WaitForNode(ctx, cfg.Endpoint))

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)
	contractCaller := newSandboxCaller(t, cfg)

	signer, err := inMemoryMessageSigner.NewInMemoryMessageSignerFromB58(cfg.PrivateKey, l)
	require.NoError(t, err)
	journal := memory.NewMemoryJournal(l)
	defer func() { _ = journal.Close() }()

	transferClient, err := transfer.NewClient(signer, contractCaller, contractCaller, journal,
		&transfer.ClientConfig{Prefix: transfer.DefaultPrefix, VerifyPacking: true}, l)
	require.NoError(t, err)

	token, err := crypto.B58CheckEncode(crypto.PrefixKT1, make([]byte, 20))
	require.NoError(t, err)

	t.Run("node packs tokens like the local encoder", func(t *testing.T) {
		for _, ref := range []types.TokenRef{types.FA12{Address: token}, types.NewFA2(token, 3)} {
			data, err := michelson.TokenData(ref)
			require.NoError(t, err)
			remote, err := contractCaller.PackData(ctx, data, michelson.TokenType)
			require.NoError(t, err)
			local, err := michelson.PackToken(ref)
			require.NoError(t, err)
			assert.Equal(t, local, remote, "token %s", ref)
		}
	})

	t.Run("transfers are submitted with increasing nonces", func(t *testing.T) {
		req := &transfer.Request{Token: types.FA12{Address: token}, Destination: destination, Amount: "1"}

		first, err := transferClient.Send(ctx, req)
		require.NoError(t, err)
		assert.NotEmpty(t, first.OperationHash)

		second, err := transferClient.Send(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.Nonce+1, second.Nonce)
	})
}

// Test_SandboxDeploy originates a bridge from a compiled contract when one is present.
func Test_SandboxDeploy(t *testing.T) {
	cfg := tests.ReadSandboxConfig(t)
	if cfg.Rollup == "" {
		t.Skipf("Skipping deploy test: set %s", tests.EnvSandboxRollup)
	}
	script := tests.ContractPath("bridge.tz")
	if _, err := os.Stat(script); err != nil {
		t.Skipf("Skipping deploy test: %s not found", script)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	require.NoError(t, tests.WaitForNode(ctx, cfg.Endpoint))

	contractCaller := newSandboxCaller(t, cfg)
	res, err := contractCaller.OriginateBridge(ctx, &caller.OriginateBridgeParams{
		Alias:         "bridge-it",
		Script:        script,
		InitialRollup: cfg.Rollup,
	})
	require.NoError(t, err)
	assert.Regexp(t, "^KT1", res.Contract)

	res, err = contractCaller.InitialiseBridge(ctx, res.Contract, cfg.Rollup)
	require.NoError(t, err)
	assert.NotEmpty(t, res.OperationHash)
}
