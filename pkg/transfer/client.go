package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/messageSigner"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// Submitter hands a payload to the rollup inbox and returns the operation hash.
type Submitter interface {
	SubmitInboxMessage(ctx context.Context, message []byte) (string, error)
}

type ClientConfig struct {
	// Prefix is the inbox discriminator byte.
	Prefix byte
	// VerifyPacking cross-checks the local token packing with the Packer.
	VerifyPacking bool
	// RequireNonce rejects requests without an explicit nonce. Set it when the
	// journal does not outlive the process and would always suggest 0.
	RequireNonce bool
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{Prefix: DefaultPrefix}
}

// Request describes one transfer. A nil Nonce asks the journal for the next one.
type Request struct {
	Token       types.TokenRef
	Destination string
	Amount      string
	Nonce       *uint64
}

// PreparedMessage is a signed, serialized transfer that has not been submitted.
type PreparedMessage struct {
	Sender     string
	Nonce      uint64
	Hash       string
	Message    types.TransferMessage
	Payload    []byte
	PayloadHex string
}

type SendResult struct {
	*PreparedMessage
	OperationHash string
	RecordID      string
}

// Client builds, signs and submits transfer messages. Nothing is retried: a failed
// submission is reported and the caller decides what to do with the nonce.
type Client struct {
	signer    messageSigner.IMessageSigner
	submitter Submitter
	packer    Packer
	journal   persistence.IJournal
	config    *ClientConfig
	logger    *zap.Logger
}

// NewClient wires the collaborators. submitter is only needed by Send, packer only when
// VerifyPacking is set, and journal may be nil when nonces are always given explicitly.
func NewClient(
	signer messageSigner.IMessageSigner,
	submitter Submitter,
	packer Packer,
	journal persistence.IJournal,
	cfg *ClientConfig,
	logger *zap.Logger,
) (*Client, error) {
	if signer == nil {
		return nil, fmt.Errorf("message signer is required")
	}
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if cfg.VerifyPacking && packer == nil {
		return nil, fmt.Errorf("packing verification requires a packer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		signer:    signer,
		submitter: submitter,
		packer:    packer,
		journal:   journal,
		config:    cfg,
		logger:    logger,
	}, nil
}

// NextNonce suggests the nonce for sender from the journal.
func (c *Client) NextNonce(sender string) (uint64, error) {
	if c.journal == nil {
		return 0, newValidationError("nonce", "no journal configured, an explicit nonce is required")
	}
	return persistence.NextNonce(c.journal, sender)
}

func (c *Client) buildContent(ctx context.Context, req *Request) (types.TransferContent, error) {
	if c.config.VerifyPacking {
		return BuildContentWithPacker(ctx, c.packer, req.Token, req.Destination, req.Amount)
	}
	return BuildContent(req.Token, req.Destination, req.Amount)
}

// Prepare validates, hashes, signs and serializes a transfer without submitting it.
func (c *Client) Prepare(ctx context.Context, req *Request) (*PreparedMessage, error) {
	if req == nil {
		return nil, newValidationError("request", "request is nil")
	}
	if req.Nonce == nil && c.config.RequireNonce {
		return nil, newValidationError("nonce", "an explicit nonce is required, the journal does not keep submitted nonces")
	}
	content, err := c.buildContent(ctx, req)
	if err != nil {
		return nil, err
	}

	sender, err := c.signer.Address(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "signer address", Err: err}
	}
	publicKey, err := c.signer.PublicKey(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "signer public key", Err: err}
	}

	var nonce uint64
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else if nonce, err = c.NextNonce(sender); err != nil {
		return nil, err
	}

	digest := HashToSign(nonce, content)
	signature, err := c.signer.Sign(ctx, digest[:])
	if err != nil {
		return nil, &RemoteError{Op: "sign transfer", Err: err}
	}

	msg := NewTransferMessage(publicKey, signature, nonce, content)
	if err := Verify(&msg); err != nil {
		return nil, &RemoteError{Op: "sign transfer", Err: err}
	}

	payload, err := EncodeMessage(MessageOptions{
		PublicKey: publicKey,
		Signature: signature,
		Nonce:     nonce,
		Content:   content,
		Prefix:    c.config.Prefix,
	})
	if err != nil {
		return nil, err
	}

	return &PreparedMessage{
		Sender:     sender,
		Nonce:      nonce,
		Hash:       HashToSignHex(nonce, content),
		Message:    msg,
		Payload:    payload,
		PayloadHex: fmt.Sprintf("%x", payload),
	}, nil
}

// Send prepares the transfer, refuses nonces the journal has already seen for the
// sender, submits the payload and records the submission.
func (c *Client) Send(ctx context.Context, req *Request) (*SendResult, error) {
	if c.submitter == nil {
		return nil, fmt.Errorf("no submitter configured")
	}
	prepared, err := c.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.journal != nil {
		last, found, err := c.journal.GetLastNonce(prepared.Sender)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		if found && prepared.Nonce <= last {
			return nil, newValidationError("nonce", "nonce %d is not above %d, the last nonce submitted by %s", prepared.Nonce, last, prepared.Sender)
		}
	}

	opHash, err := c.submitter.SubmitInboxMessage(ctx, prepared.Payload)
	if err != nil {
		return nil, &RemoteError{Op: "submit inbox message", Err: err}
	}
	c.logger.Sugar().Infow("Transfer message submitted",
		"sender", prepared.Sender,
		"nonce", prepared.Nonce,
		"hash", prepared.Hash,
		"operationHash", opHash,
	)

	result := &SendResult{PreparedMessage: prepared, OperationHash: opHash}
	if c.journal == nil {
		return result, nil
	}

	record := persistence.NewSubmissionRecord(prepared.Sender, prepared.Nonce, prepared.Hash, prepared.PayloadHex)
	record.OperationHash = opHash
	record.Destination = prepared.Message.Inner.Content.Destination.Address()
	record.Amount = prepared.Message.Inner.Content.Amount
	// the operation is injected at this point; its hash is returned even if the journal write fails
	if err := c.journal.SaveSubmission(record); err != nil {
		c.logger.Sugar().Errorw("Failed to record submission in journal",
			"operationHash", opHash, "nonce", prepared.Nonce, "error", err)
		return result, nil
	}
	result.RecordID = record.ID
	return result, nil
}
