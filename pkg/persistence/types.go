package persistence

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is written by persistent backends on first open and checked afterwards.
const SchemaVersion = "1"

const (
	JournalTypeMemory = "memory"
	JournalTypeBadger = "badger"
	JournalTypeRedis  = "redis"
)

// SubmissionRecord describes one transfer message handed to the rollup inbox.
type SubmissionRecord struct {
	// ID is a random UUID assigned when the record is created.
	ID string `json:"id"`

	// Sender is the tz1 address derived from the signing public key.
	Sender string `json:"sender"`

	Nonce uint64 `json:"nonce"`

	// Hash is the hex digest that was signed.
	Hash string `json:"hash"`

	// OperationHash is the handle returned by the chain client. Empty for dry runs.
	OperationHash string `json:"operationHash"`

	// MessageHex is the serialized payload, discriminator included.
	MessageHex string `json:"messageHex"`

	Destination string `json:"destination"`
	Amount      string `json:"amount"`

	// SubmittedAt is the Unix timestamp of submission.
	SubmittedAt int64 `json:"submittedAt"`
}

// NewSubmissionRecord creates a record with a fresh ID and the current time.
func NewSubmissionRecord(sender string, nonce uint64, hash, messageHex string) *SubmissionRecord {
	return &SubmissionRecord{
		ID:          uuid.NewString(),
		Sender:      sender,
		Nonce:       nonce,
		Hash:        hash,
		MessageHex:  messageHex,
		SubmittedAt: time.Now().Unix(),
	}
}

// Copy returns a copy of the record so stored values cannot be mutated by callers.
func (r *SubmissionRecord) Copy() *SubmissionRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
