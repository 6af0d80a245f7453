package caller

import (
	"context"
	"fmt"
	"math/big"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

const (
	EntrypointInitialise      = "initialise"
	EntrypointDeposit         = "deposit"
	EntrypointApprove         = "approve"
	EntrypointUpdateOperators = "update_operators"
)

type OriginateBridgeParams struct {
	// Alias is the name the chain client remembers the contract under.
	Alias string
	// Script is the path of the compiled bridge contract.
	Script string
	// InitialRollup is the rollup address stored at origination; initialise replaces it.
	InitialRollup string
}

func (cc *ContractCaller) OriginateBridge(ctx context.Context, params *OriginateBridgeParams) (*OperationResult, error) {
	if params == nil {
		return nil, fmt.Errorf("origination parameters cannot be nil")
	}
	if params.Script == "" {
		return nil, fmt.Errorf("bridge script is required")
	}
	if _, err := michelson.EncodeAddress(params.InitialRollup); err != nil {
		return nil, fmt.Errorf("invalid initial rollup address: %w", err)
	}

	res, err := cc.client.Originate(ctx, &octezClient.OriginateParams{
		Alias:       params.Alias,
		Source:      cc.config.Source,
		Script:      params.Script,
		InitStorage: michelson.String{Value: params.InitialRollup}.String(),
		BurnCap:     cc.config.BurnCap,
	})
	if err != nil {
		return nil, err
	}
	cc.logger.Sugar().Infow("Bridge originated", "contract", res.Contract, "operationHash", res.OperationHash)
	return &OperationResult{OperationHash: res.OperationHash, Contract: res.Contract}, nil
}

func (cc *ContractCaller) InitialiseBridge(ctx context.Context, bridge, rollup string) (*OperationResult, error) {
	if _, err := michelson.EncodeAddress(rollup); err != nil {
		return nil, fmt.Errorf("invalid rollup address: %w", err)
	}
	return cc.sendTransfer(ctx, &octezClient.TransferParams{
		Destination: bridge,
		Entrypoint:  EntrypointInitialise,
		Arg:         michelson.String{Value: rollup}.String(),
	}, "initialise bridge")
}

// Deposit batches the token authorization with the bridge deposit: approve for FA1.2,
// add_operator for FA2.
func (cc *ContractCaller) Deposit(ctx context.Context, bridge string, token types.TokenRef, amount string) (*OperationResult, error) {
	if !isDigits(amount) {
		return nil, fmt.Errorf("amount %q is not a non-negative decimal integer", amount)
	}
	value, _ := new(big.Int).SetString(amount, 10)

	deposit, err := DepositArg(token, value)
	if err != nil {
		return nil, err
	}

	var authorize *octezClient.TransferParams
	switch t := token.(type) {
	case types.FA12:
		authorize = &octezClient.TransferParams{
			Destination: t.Address,
			Entrypoint:  EntrypointApprove,
			Arg:         ApproveArg(bridge, value),
		}
	case types.FA2:
		if cc.config.Owner == "" {
			return nil, fmt.Errorf("owner address is required to add the bridge as fa2 operator")
		}
		authorize = &octezClient.TransferParams{
			Destination: t.Address,
			Entrypoint:  EntrypointUpdateOperators,
			Arg:         AddOperatorArg(cc.config.Owner, bridge, t.TokenID),
		}
	default:
		return nil, fmt.Errorf("unsupported token kind %T", token)
	}

	return cc.sendBatch(ctx, []*octezClient.TransferParams{
		authorize,
		{Destination: bridge, Entrypoint: EntrypointDeposit, Arg: deposit},
	}, "deposit "+token.Standard().String())
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
