package contractCaller

import (
	"context"
	"sync"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller/caller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// MockContractCaller is an in-memory IContractCaller for tests. It records submitted
// messages and deposits.
type MockContractCaller struct {
	mu sync.Mutex

	Submitted [][]byte
	Deposits  []string

	// Err, when set, is returned by every call.
	Err error
	// PackOverride, when set, is returned by PackData instead of the local packing.
	PackOverride []byte

	OperationHash string
}

var _ IContractCaller = (*MockContractCaller)(nil)

func NewMockContractCaller() *MockContractCaller {
	return &MockContractCaller{OperationHash: "ooMockOperation"}
}

func (m *MockContractCaller) OriginateBridge(_ context.Context, params *caller.OriginateBridgeParams) (*caller.OperationResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &caller.OperationResult{OperationHash: m.OperationHash, Contract: "KT1ThEdxfUcWUwqsdergy3QnbCWGHSUHeHJq"}, nil
}

func (m *MockContractCaller) InitialiseBridge(_ context.Context, bridge, rollup string) (*caller.OperationResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &caller.OperationResult{OperationHash: m.OperationHash}, nil
}

func (m *MockContractCaller) Deposit(_ context.Context, bridge string, token types.TokenRef, amount string) (*caller.OperationResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deposits = append(m.Deposits, token.ContractAddress()+":"+amount)
	return &caller.OperationResult{OperationHash: m.OperationHash}, nil
}

func (m *MockContractCaller) SubmitInboxMessage(_ context.Context, message []byte) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, append([]byte{}, message...))
	return m.OperationHash, nil
}

// PackData returns PackOverride.
func (m *MockContractCaller) PackData(_ context.Context, data, typ string) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.PackOverride, nil
}
