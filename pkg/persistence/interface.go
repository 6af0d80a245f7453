package persistence

// IJournal records the transfer messages this client has submitted to the rollup inbox.
// All implementations must be thread-safe.
//
// The journal is advisory: the rollup holds the authoritative nonce of every sender. The
// journal only lets the client suggest the next nonce and refuse to reuse one locally.
type IJournal interface {
	// SaveSubmission persists a submission record under its ID and raises the sender's
	// last nonce when the record's nonce is higher. Overwrites a record with the same ID.
	SaveSubmission(record *SubmissionRecord) error

	// LoadSubmission retrieves a record by ID.
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadSubmission(id string) (*SubmissionRecord, error)

	// ListSubmissions returns the records of a sender sorted by nonce (ascending).
	// Returns empty slice if there are none.
	ListSubmissions(sender string) ([]*SubmissionRecord, error)

	// DeleteSubmission removes a record. The sender's last nonce is left untouched.
	// Idempotent - returns nil if the record doesn't exist.
	DeleteSubmission(id string) error

	// GetLastNonce returns the highest nonce recorded for sender.
	// found is false when nothing was ever recorded for that sender.
	GetLastNonce(sender string) (nonce uint64, found bool, err error)

	// Close cleanly shuts down the journal.
	// Idempotent - safe to call multiple times. After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the journal is operational.
	HealthCheck() error
}

// NextNonce suggests the nonce for the next message of sender: one past the last recorded
// nonce, or 0 for a sender the journal has never seen.
func NextNonce(j IJournal, sender string) (uint64, error) {
	last, found, err := j.GetLastNonce(sender)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return last + 1, nil
}
