package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezClient"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/clients/octezSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/config"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller/caller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/logger"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner/inMemoryMessageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner/remoteMessageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
	badgerJournal "github.com/tezos-bridge/rollup-bridge-go/pkg/persistence/badger"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence/memory"
	redisJournal "github.com/tezos-bridge/rollup-bridge-go/pkg/persistence/redis"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/transfer"
)

// loadConfig assembles the client configuration from flags and environment
func loadConfig(c *cli.Context) (*config.BridgeClientConfig, error) {
	cfg, err := config.NewBridgeClientConfig(config.NetworkName(c.String("network")))
	if err != nil {
		return nil, err
	}

	cfg.OctezClient = c.String("octez-client")
	if c.IsSet("endpoint") {
		cfg.RpcUrl = c.String("endpoint")
	}
	cfg.BaseDir = c.String("base-dir")
	cfg.Source = c.String("source")
	cfg.BurnCap = c.String("burn-cap")
	cfg.PrivateKey = c.String("private-key")
	if url := c.String("remote-signer-url"); url != "" {
		cfg.RemoteSigner = &config.RemoteSignerConfig{
			Url:     url,
			CACert:  c.String("remote-signer-ca-cert"),
			Cert:    c.String("remote-signer-cert"),
			Key:     c.String("remote-signer-key"),
			Address: c.String("remote-signer-address"),

			RequestsPerSecond: c.Float64("remote-signer-rps"),
		}
	}
	if c.IsSet("message-prefix") {
		if cfg.MessagePrefix, err = parsePrefix(c.Uint("message-prefix")); err != nil {
			return nil, err
		}
	}
	cfg.Journal = config.JournalConfig{
		Type:          config.JournalType(c.String("journal-type")),
		Path:          c.String("journal-path"),
		RedisAddress:  c.String("redis-address"),
		RedisPassword: c.String("redis-password"),
	}
	cfg.Debug = c.Bool("debug")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// commandContext bounds one command by the selected network's timeout
func commandContext(c *cli.Context, cfg *config.BridgeClientConfig) (context.Context, context.CancelFunc) {
	settings, err := config.GetNetworkSettings(cfg.Network)
	if err != nil {
		return context.WithCancel(c.Context)
	}
	return context.WithTimeout(c.Context, settings.Timeout)
}

func createLogger(cfg *config.BridgeClientConfig) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// createOctezClient wraps the external octez-client binary
func createOctezClient(cfg *config.BridgeClientConfig, l *zap.Logger) *octezClient.Client {
	wait := "none"
	if settings, err := config.GetNetworkSettings(cfg.Network); err == nil {
		wait = waitArg(settings.Confirmations)
	}
	return octezClient.NewClient(&octezClient.Config{
		Binary:   cfg.OctezClient,
		Endpoint: cfg.RpcUrl,
		BaseDir:  cfg.BaseDir,
		Wait:     wait,
	}, nil, l)
}

// createContractCaller creates the caller sending base chain operations from --source
func createContractCaller(c *cli.Context, cfg *config.BridgeClientConfig, l *zap.Logger) (*caller.ContractCaller, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("--source is required to send operations")
	}
	contractCaller, err := caller.NewContractCaller(createOctezClient(cfg, l), &caller.Config{
		Source:  cfg.Source,
		Owner:   c.String("owner"),
		BurnCap: cfg.BurnCap,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract caller: %w", err)
	}
	return contractCaller, nil
}

// createMessageSigner returns the local or remote signer of transfer messages
func createMessageSigner(cfg *config.BridgeClientConfig, l *zap.Logger) (messageSigner.IMessageSigner, error) {
	if err := cfg.ValidateSigner(); err != nil {
		return nil, err
	}
	if cfg.PrivateKey != "" {
		signer, err := inMemoryMessageSigner.NewInMemoryMessageSignerFromB58(cfg.PrivateKey, l)
		if err != nil {
			return nil, err
		}
		return signer, nil
	}

	rs := cfg.RemoteSigner
	signerCfg := octezSigner.DefaultConfig()
	signerCfg.BaseURL = rs.Url
	if rs.CACert != "" || rs.Cert != "" {
		signerCfg = octezSigner.NewConfigWithTLS(rs.Url, rs.CACert, rs.Cert, rs.Key)
	}
	signerCfg.RequestsPerSecond = rs.RequestsPerSecond
	client, err := octezSigner.NewClient(signerCfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote signer client: %w", err)
	}
	signer, err := remoteMessageSigner.NewRemoteMessageSigner(client, rs.Address, l)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

// createJournal opens the configured submission journal
func createJournal(cfg *config.BridgeClientConfig, l *zap.Logger) (persistence.IJournal, error) {
	switch cfg.Journal.Type {
	case config.JournalType_Memory:
		return memory.NewMemoryJournal(l), nil
	case config.JournalType_Badger:
		journal, err := badgerJournal.NewBadgerJournal(cfg.Journal.Path, l)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger journal: %w", err)
		}
		return journal, nil
	case config.JournalType_Redis:
		journal, err := redisJournal.NewRedisJournal(&redisJournal.RedisConfig{
			Address:   cfg.Journal.RedisAddress,
			Password:  cfg.Journal.RedisPassword,
			DB:        cfg.Journal.RedisDB,
			KeyPrefix: string(cfg.Network) + ":",
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis journal: %w", err)
		}
		return journal, nil
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", cfg.Journal.Type)
	}
}

// createTransferClient wires signer, submitter and journal. submitter may be nil for
// commands that only prepare messages.
func createTransferClient(
	cfg *config.BridgeClientConfig,
	submitter *caller.ContractCaller,
	journal persistence.IJournal,
	verifyPacking bool,
	l *zap.Logger,
) (*transfer.Client, error) {
	signer, err := createMessageSigner(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create message signer: %w", err)
	}

	var (
		sub    transfer.Submitter
		packer transfer.Packer
	)
	if submitter != nil {
		sub = submitter
		packer = submitter
	}
	client, err := transfer.NewClient(signer, sub, packer, journal, &transfer.ClientConfig{
		Prefix:        cfg.MessagePrefix,
		VerifyPacking: verifyPacking,
		RequireNonce:  !cfg.Journal.Persistent(),
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer client: %w", err)
	}
	return client, nil
}
