package memory

import (
	"fmt"
	"sync"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
	"go.uber.org/zap"
)

// MemoryJournal is an in-memory implementation of IJournal.
// Everything is lost when the process exits, so nonce suggestions only cover the current run.
// Records are copied in and out to prevent external mutation.
type MemoryJournal struct {
	mu sync.RWMutex

	// id -> record
	records map[string]*persistence.SubmissionRecord

	// sender -> highest nonce
	lastNonces map[string]uint64

	closed bool
}

var _ persistence.IJournal = (*MemoryJournal)(nil)

// NewMemoryJournal creates a new in-memory journal.
func NewMemoryJournal(logger *zap.Logger) *MemoryJournal {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory journal, submissions will not be remembered after exit",
			"hint", "set BRIDGE_JOURNAL_TYPE=badger to keep nonce history")
	}

	return &MemoryJournal{
		records:    make(map[string]*persistence.SubmissionRecord),
		lastNonces: make(map[string]uint64),
	}
}

// SaveSubmission persists a submission record.
func (m *MemoryJournal) SaveSubmission(record *persistence.SubmissionRecord) error {
	if err := persistence.ValidateSubmissionRecord(record); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.records[record.ID] = record.Copy()
	if last, ok := m.lastNonces[record.Sender]; !ok || record.Nonce > last {
		m.lastNonces[record.Sender] = record.Nonce
	}
	return nil
}

// LoadSubmission retrieves a record by ID.
func (m *MemoryJournal) LoadSubmission(id string) (*persistence.SubmissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	record, exists := m.records[id]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return record.Copy(), nil
}

// ListSubmissions returns the records of a sender sorted by nonce.
func (m *MemoryJournal) ListSubmissions(sender string) ([]*persistence.SubmissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	result := make([]*persistence.SubmissionRecord, 0)
	for _, record := range m.records {
		if record.Sender == sender {
			result = append(result, record.Copy())
		}
	}
	persistence.SortSubmissions(result)
	return result, nil
}

// DeleteSubmission removes a record.
func (m *MemoryJournal) DeleteSubmission(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.records, id)
	return nil
}

// GetLastNonce returns the highest recorded nonce of sender.
func (m *MemoryJournal) GetLastNonce(sender string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, false, fmt.Errorf("persistence layer is closed")
	}

	nonce, ok := m.lastNonces[sender]
	return nonce, ok, nil
}

// Close marks the journal closed. Idempotent.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the journal is usable.
func (m *MemoryJournal) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}
