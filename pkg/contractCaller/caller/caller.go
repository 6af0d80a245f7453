package caller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
)

// Config identifies the account operations are sent from.
type Config struct {
	// Source is the alias or address known to the chain client that signs operations.
	Source string
	// Owner is the tz1 address of Source, needed where the address itself is a call argument.
	Owner string
	// BurnCap is the maximum storage fee, in tez, an operation may burn.
	BurnCap string
}

// OperationResult is what an injected operation leaves behind.
type OperationResult struct {
	OperationHash string `json:"operationHash"`
	// Contract is set for originations.
	Contract string `json:"contract,omitempty"`
}

type ContractCaller struct {
	client octezClient.IOctezClient
	config *Config
	logger *zap.Logger
}

func NewContractCaller(client octezClient.IOctezClient, cfg *Config, logger *zap.Logger) (*ContractCaller, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client cannot be nil")
	}
	if cfg == nil || cfg.Source == "" {
		return nil, fmt.Errorf("source account is required")
	}
	return &ContractCaller{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// SubmitInboxMessage sends message as a one-element external inbox batch.
func (cc *ContractCaller) SubmitInboxMessage(ctx context.Context, message []byte) (string, error) {
	cc.logger.Sugar().Infow("Submitting rollup inbox message",
		zap.String("source", cc.config.Source),
		zap.Int("bytes", len(message)),
	)
	return cc.client.SendSmartRollupMessage(ctx, cc.config.Source, [][]byte{message})
}

func (cc *ContractCaller) PackData(ctx context.Context, data, typ string) ([]byte, error) {
	return cc.client.HashData(ctx, data, typ)
}
