package caller

import (
	"context"

	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
)

func (cc *ContractCaller) sendTransfer(ctx context.Context, params *octezClient.TransferParams, operation string) (*OperationResult, error) {
	cc.logger.Sugar().Infow("Sending contract call",
		zap.String("operation", operation),
		zap.String("from", cc.config.Source),
		zap.String("to", params.Destination),
		zap.String("entrypoint", params.Entrypoint),
	)

	opHash, err := cc.client.Transfer(ctx, cc.config.Source, params, cc.config.BurnCap)
	if err != nil {
		return nil, err
	}
	return &OperationResult{OperationHash: opHash}, nil
}

func (cc *ContractCaller) sendBatch(ctx context.Context, batch []*octezClient.TransferParams, operation string) (*OperationResult, error) {
	entrypoints := make([]string, len(batch))
	for i, p := range batch {
		entrypoints[i] = p.Destination + "%" + p.Entrypoint
	}
	cc.logger.Sugar().Infow("Sending batched contract calls",
		zap.String("operation", operation),
		zap.String("from", cc.config.Source),
		zap.Strings("calls", entrypoints),
	)

	opHash, err := cc.client.MultipleTransfers(ctx, cc.config.Source, batch, cc.config.BurnCap)
	if err != nil {
		return nil, err
	}
	return &OperationResult{OperationHash: opHash}, nil
}
