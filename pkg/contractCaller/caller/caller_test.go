package caller

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

const (
	testOwner = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"
	testOp    = "ooVGcR3LEXtpDc2ku4Fqpx7DPTfgRFxrmqKuMhbEGhbPcLFtyX8"
)

type fakeOctezClient struct {
	transfers  []*octezClient.TransferParams
	batches    [][]*octezClient.TransferParams
	originated []*octezClient.OriginateParams
	messages   [][]byte
	source     string
	burnCap    string
	err        error
}

func (f *fakeOctezClient) HashData(_ context.Context, data, typ string) ([]byte, error) {
	return []byte(data + "|" + typ), f.err
}

func (f *fakeOctezClient) SendSmartRollupMessage(_ context.Context, source string, messages [][]byte) (string, error) {
	f.source = source
	f.messages = append(f.messages, messages...)
	return testOp, f.err
}

func (f *fakeOctezClient) Originate(_ context.Context, params *octezClient.OriginateParams) (*octezClient.OriginationResult, error) {
	f.originated = append(f.originated, params)
	if f.err != nil {
		return nil, f.err
	}
	return &octezClient.OriginationResult{Contract: "KT1new", OperationHash: testOp}, nil
}

func (f *fakeOctezClient) Transfer(_ context.Context, source string, params *octezClient.TransferParams, burnCap string) (string, error) {
	f.source, f.burnCap = source, burnCap
	f.transfers = append(f.transfers, params)
	return testOp, f.err
}

func (f *fakeOctezClient) MultipleTransfers(_ context.Context, source string, params []*octezClient.TransferParams, burnCap string) (string, error) {
	f.source, f.burnCap = source, burnCap
	f.batches = append(f.batches, params)
	return testOp, f.err
}

func kt1(t *testing.T, seed byte) string {
	t.Helper()
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = seed
	}
	addr, err := crypto.B58CheckEncode(crypto.PrefixKT1, hash)
	require.NoError(t, err)
	return addr
}

func sr1(t *testing.T) string {
	t.Helper()
	addr, err := crypto.B58CheckEncode(crypto.PrefixSr1, make([]byte, 20))
	require.NoError(t, err)
	return addr
}

func newTestCaller(t *testing.T) (*ContractCaller, *fakeOctezClient) {
	t.Helper()
	fake := &fakeOctezClient{}
	cc, err := NewContractCaller(fake, &Config{Source: "alice", Owner: testOwner, BurnCap: "1"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return cc, fake
}

func TestNewContractCaller_Validation(t *testing.T) {
	_, err := NewContractCaller(nil, &Config{Source: "alice"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewContractCaller(&fakeOctezClient{}, &Config{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestContractCaller_SubmitInboxMessage(t *testing.T) {
	cc, fake := newTestCaller(t)

	opHash, err := cc.SubmitInboxMessage(context.Background(), []byte{0x55, 0x01})
	require.NoError(t, err)
	assert.Equal(t, testOp, opHash)
	assert.Equal(t, "alice", fake.source)
	assert.Equal(t, [][]byte{{0x55, 0x01}}, fake.messages)
}

func TestContractCaller_ErrorsPropagateUnchanged(t *testing.T) {
	cc, fake := newTestCaller(t)
	fake.err = fmt.Errorf("node unreachable")

	_, err := cc.SubmitInboxMessage(context.Background(), []byte{0x55})
	assert.Same(t, fake.err, err)

	_, err = cc.InitialiseBridge(context.Background(), kt1(t, 1), sr1(t))
	assert.Same(t, fake.err, err)

	_, err = cc.Deposit(context.Background(), kt1(t, 1), types.FA12{Address: kt1(t, 2)}, "10")
	assert.Same(t, fake.err, err)
}

func TestContractCaller_OriginateBridge(t *testing.T) {
	cc, fake := newTestCaller(t)
	initial := kt1(t, 9)

	res, err := cc.OriginateBridge(context.Background(), &OriginateBridgeParams{Alias: "bridge", Script: "bridge.tz", InitialRollup: initial})
	require.NoError(t, err)
	assert.Equal(t, "KT1new", res.Contract)
	assert.Equal(t, testOp, res.OperationHash)

	require.Len(t, fake.originated, 1)
	assert.Equal(t, `"`+initial+`"`, fake.originated[0].InitStorage)
	assert.Equal(t, "alice", fake.originated[0].Source)
	assert.Equal(t, "1", fake.originated[0].BurnCap)

	_, err = cc.OriginateBridge(context.Background(), &OriginateBridgeParams{Script: "bridge.tz", InitialRollup: "nope"})
	assert.Error(t, err)
	_, err = cc.OriginateBridge(context.Background(), &OriginateBridgeParams{InitialRollup: initial})
	assert.Error(t, err)
}

func TestContractCaller_InitialiseBridge(t *testing.T) {
	cc, fake := newTestCaller(t)
	bridge, rollup := kt1(t, 1), sr1(t)

	_, err := cc.InitialiseBridge(context.Background(), bridge, rollup)
	require.NoError(t, err)

	require.Len(t, fake.transfers, 1)
	assert.Equal(t, &octezClient.TransferParams{
		Destination: bridge,
		Entrypoint:  EntrypointInitialise,
		Arg:         `"` + rollup + `"`,
	}, fake.transfers[0])
	assert.Equal(t, "1", fake.burnCap)

	_, err = cc.InitialiseBridge(context.Background(), bridge, "")
	assert.Error(t, err)
}

func TestContractCaller_DepositFA12(t *testing.T) {
	cc, fake := newTestCaller(t)
	bridge, token := kt1(t, 1), kt1(t, 2)

	_, err := cc.Deposit(context.Background(), bridge, types.FA12{Address: token}, "100")
	require.NoError(t, err)

	require.Len(t, fake.batches, 1)
	batch := fake.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, &octezClient.TransferParams{Destination: token, Entrypoint: EntrypointApprove, Arg: `Pair "` + bridge + `" 100`}, batch[0])
	assert.Equal(t, &octezClient.TransferParams{Destination: bridge, Entrypoint: EntrypointDeposit, Arg: `Pair (Left "` + token + `") 100`}, batch[1])
}

func TestContractCaller_DepositFA2(t *testing.T) {
	cc, fake := newTestCaller(t)
	bridge, token := kt1(t, 1), kt1(t, 3)

	_, err := cc.Deposit(context.Background(), bridge, types.NewFA2(token, 7), "5")
	require.NoError(t, err)

	batch := fake.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, EntrypointUpdateOperators, batch[0].Entrypoint)
	assert.Equal(t, `{ Left (Pair "`+testOwner+`" (Pair "`+bridge+`" 7)) }`, batch[0].Arg)
	assert.Equal(t, `Pair (Right (Pair "`+token+`" 7)) 5`, batch[1].Arg)
}

func TestContractCaller_DepositValidation(t *testing.T) {
	cc, fake := newTestCaller(t)
	bridge := kt1(t, 1)

	for _, amount := range []string{"", "-1", "1.5", "1e3", "+3"} {
		_, err := cc.Deposit(context.Background(), bridge, types.FA12{Address: kt1(t, 2)}, amount)
		assert.Error(t, err, amount)
	}
	_, err := cc.Deposit(context.Background(), bridge, types.FA2{Address: kt1(t, 2), TokenID: big.NewInt(-1)}, "1")
	assert.Error(t, err)
	_, err = cc.Deposit(context.Background(), bridge, nil, "1")
	assert.Error(t, err)
	assert.Empty(t, fake.batches)

	noOwner, err := NewContractCaller(fake, &Config{Source: "alice"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = noOwner.Deposit(context.Background(), bridge, types.NewFA2(kt1(t, 2), 0), "1")
	assert.Error(t, err)
}

func TestContractCaller_PackData(t *testing.T) {
	cc, _ := newTestCaller(t)
	packed, err := cc.PackData(context.Background(), "0", "nat")
	require.NoError(t, err)
	assert.Equal(t, []byte("0|nat"), packed)
}

func TestArguments(t *testing.T) {
	assert.Equal(t, `Pair "KT1x" 0`, ApproveArg("KT1x", big.NewInt(0)))
	assert.Equal(t, `{ Left (Pair "tz1o" (Pair "KT1b" 12)) }`, AddOperatorArg("tz1o", "KT1b", big.NewInt(12)))

	_, err := DepositArg(types.FA12{}, big.NewInt(1))
	assert.Error(t, err)
}
