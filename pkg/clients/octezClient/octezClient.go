// Package octezClient drives the octez-client binary, which is the chain client this
// tool relies on for packing data, calling contracts and feeding the rollup inbox.
package octezClient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultBinary = "octez-client"

var (
	packedDataPattern    = regexp.MustCompile(`Raw packed data: 0x([0-9a-fA-F]*)`)
	operationHashPattern = regexp.MustCompile(`Operation hash is '(o[1-9A-HJ-NP-Za-km-z]{50})'`)
	newContractPattern   = regexp.MustCompile(`New contract (KT1[1-9A-HJ-NP-Za-km-z]{33}) originated`)
)

// IOctezClient is the subset of octez-client commands the bridge tooling uses.
type IOctezClient interface {
	HashData(ctx context.Context, data, typ string) ([]byte, error)
	SendSmartRollupMessage(ctx context.Context, source string, messages [][]byte) (string, error)
	Originate(ctx context.Context, params *OriginateParams) (*OriginationResult, error)
	Transfer(ctx context.Context, source string, params *TransferParams, burnCap string) (string, error)
	MultipleTransfers(ctx context.Context, source string, params []*TransferParams, burnCap string) (string, error)
}

var _ IOctezClient = (*Client)(nil)

// Config selects the binary and its global options.
type Config struct {
	Binary   string
	Endpoint string
	BaseDir  string
	// Wait is passed as --wait, e.g. "none" to return as soon as the operation is injected.
	Wait string
}

// TransferParams is one contract call. Amount is in tez and defaults to 0.
type TransferParams struct {
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Entrypoint  string `json:"entrypoint,omitempty"`
	Arg         string `json:"arg,omitempty"`
}

type OriginateParams struct {
	Alias       string
	Source      string
	Script      string
	InitStorage string
	BurnCap     string
}

type OriginationResult struct {
	Contract      string
	OperationHash string
}

type Client struct {
	config *Config
	runner Runner
	logger *zap.Logger
}

func NewClient(cfg *Config, runner Runner, logger *zap.Logger) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{
		config: cfg,
		runner: runner,
		logger: logger,
	}
}

func (c *Client) binary() string {
	if c.config.Binary == "" {
		return DefaultBinary
	}
	return c.config.Binary
}

func (c *Client) globalArgs() []string {
	var args []string
	if c.config.BaseDir != "" {
		args = append(args, "--base-dir", c.config.BaseDir)
	}
	if c.config.Endpoint != "" {
		args = append(args, "--endpoint", c.config.Endpoint)
	}
	if c.config.Wait != "" {
		args = append(args, "--wait", c.config.Wait)
	}
	return args
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	full := append(c.globalArgs(), args...)
	c.logger.Sugar().Debugw("Running octez-client", "binary", c.binary(), "args", full)

	stdout, stderr, err := c.runner.Run(ctx, c.binary(), full...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		return "", errors.Wrapf(err, "%s %s failed: %s", c.binary(), args[0], msg)
	}
	return string(stdout), nil
}

// HashData packs data against typ with the node's own serializer.
func (c *Client) HashData(ctx context.Context, data, typ string) ([]byte, error) {
	out, err := c.run(ctx, "hash", "data", data, "of", "type", typ)
	if err != nil {
		return nil, err
	}
	m := packedDataPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no packed data in octez-client output")
	}
	return hex.DecodeString(m[1])
}

// SendSmartRollupMessage adds messages to the shared rollup inbox and returns the operation hash.
func (c *Client) SendSmartRollupMessage(ctx context.Context, source string, messages [][]byte) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}
	encoded := make([]string, len(messages))
	for i, m := range messages {
		encoded[i] = hex.EncodeToString(m)
	}
	payload, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	out, err := c.run(ctx, "send", "smart", "rollup", "message", "hex:"+string(payload), "from", source)
	if err != nil {
		return "", err
	}
	return parseOperationHash(out)
}

// Originate deploys a contract and returns its address.
func (c *Client) Originate(ctx context.Context, params *OriginateParams) (*OriginationResult, error) {
	if params == nil {
		return nil, fmt.Errorf("origination parameters cannot be nil")
	}
	args := []string{
		"originate", "contract", params.Alias,
		"transferring", "0", "from", params.Source,
		"running", params.Script,
		"--init", params.InitStorage,
		"--force",
	}
	if params.BurnCap != "" {
		args = append(args, "--burn-cap", params.BurnCap)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	m := newContractPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no originated contract in octez-client output")
	}
	opHash, err := parseOperationHash(out)
	if err != nil {
		return nil, err
	}
	return &OriginationResult{Contract: m[1], OperationHash: opHash}, nil
}

// Transfer calls a single contract entrypoint.
func (c *Client) Transfer(ctx context.Context, source string, params *TransferParams, burnCap string) (string, error) {
	if params == nil {
		return "", fmt.Errorf("transfer parameters cannot be nil")
	}
	amount := params.Amount
	if amount == "" {
		amount = "0"
	}
	args := []string{"transfer", amount, "from", source, "to", params.Destination}
	if params.Entrypoint != "" {
		args = append(args, "--entrypoint", params.Entrypoint)
	}
	if params.Arg != "" {
		args = append(args, "--arg", params.Arg)
	}
	if burnCap != "" {
		args = append(args, "--burn-cap", burnCap)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return parseOperationHash(out)
}

// MultipleTransfers submits several contract calls as one atomic operation.
func (c *Client) MultipleTransfers(ctx context.Context, source string, params []*TransferParams, burnCap string) (string, error) {
	if len(params) == 0 {
		return "", fmt.Errorf("no transfers to send")
	}
	batch := make([]TransferParams, len(params))
	for i, p := range params {
		batch[i] = *p
		if batch[i].Amount == "" {
			batch[i].Amount = "0"
		}
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	args := []string{"multiple", "transfers", "from", source, "using", string(payload)}
	if burnCap != "" {
		args = append(args, "--burn-cap", burnCap)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return parseOperationHash(out)
}

func parseOperationHash(out string) (string, error) {
	m := operationHashPattern.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("no operation hash in octez-client output")
	}
	return m[1], nil
}
