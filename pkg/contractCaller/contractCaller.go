package contractCaller

import (
	"context"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller/caller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// IContractCaller wraps the bridge contract, the token contracts it moves and the
// rollup inbox. Every call goes through the chain client; nothing is retried.
type IContractCaller interface {
	// OriginateBridge deploys the bridge contract.
	OriginateBridge(ctx context.Context, params *caller.OriginateBridgeParams) (*caller.OperationResult, error)

	// InitialiseBridge points the bridge at the rollup that receives its deposits.
	InitialiseBridge(ctx context.Context, bridge, rollup string) (*caller.OperationResult, error)

	// Deposit authorizes the bridge on the token contract and deposits amount, atomically.
	Deposit(ctx context.Context, bridge string, token types.TokenRef, amount string) (*caller.OperationResult, error)

	// SubmitInboxMessage adds one message to the shared rollup inbox.
	SubmitInboxMessage(ctx context.Context, message []byte) (string, error)

	// PackData packs Michelson data against a type with the node's serializer.
	PackData(ctx context.Context, data, typ string) ([]byte, error)
}

var _ IContractCaller = (*caller.ContractCaller)(nil)
