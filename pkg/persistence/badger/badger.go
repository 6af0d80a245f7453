package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
)

// Key layout
const (
	keyPrefixSubmission  = "submission:"
	keyPrefixSenderIndex = "sender:"
	keyPrefixLastNonce   = "nonce:"
	keySchemaVersion     = "metadata:schema_version"
)

// BadgerJournal is a disk-backed IJournal using Badger.
// Records live under submission:<id>; sender:<sender>:<nonce>:<id> indexes them by sender in
// nonce order; nonce:<sender> holds the highest nonce seen.
type BadgerJournal struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IJournal = (*BadgerJournal)(nil)

// NewBadgerJournal opens (or creates) a journal at dataPath with SyncWrites enabled.
// A background goroutine runs value log garbage collection.
func NewBadgerJournal(dataPath string, logger *zap.Logger) (*BadgerJournal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve absolute path")
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newJournalLogger(logger, absPath)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger database at %s", absPath)
	}

	bj := &BadgerJournal{
		db:     db,
		logger: logger,
	}

	if err := bj.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	ctx, cancel := context.WithCancel(context.Background())
	bj.gcCancel = cancel
	bj.gcWg.Add(1)
	go bj.runGC(ctx)

	logger.Sugar().Infow("Badger journal initialized", "path", absPath)

	return bj, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerJournal) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(persistence.SchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != persistence.SchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.SchemaVersion)
		}
		return nil
	})
}

func (b *BadgerJournal) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func submissionKey(id string) []byte {
	return []byte(keyPrefixSubmission + id)
}

func senderPrefix(sender string) []byte {
	return []byte(keyPrefixSenderIndex + sender + ":")
}

// senderIndexKey zero-pads the nonce so that lexical key order is nonce order.
func senderIndexKey(sender string, nonce uint64, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", keyPrefixSenderIndex, sender, nonce, id))
}

func lastNonceKey(sender string) []byte {
	return []byte(keyPrefixLastNonce + sender)
}

func getValue(txn *badgerdb.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badgerdb.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func loadRecord(txn *badgerdb.Txn, id string) (*persistence.SubmissionRecord, error) {
	data, err := getValue(txn, submissionKey(id))
	if err != nil || data == nil {
		return nil, err
	}
	return persistence.UnmarshalSubmissionRecord(data)
}

// SaveSubmission persists a record, its sender index entry and the sender's last nonce in one transaction.
func (b *BadgerJournal) SaveSubmission(record *persistence.SubmissionRecord) error {
	if err := persistence.ValidateSubmissionRecord(record); err != nil {
		return err
	}

	// writers are serialized so the last-nonce read-modify-write never conflicts
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	data, err := persistence.MarshalSubmissionRecord(record)
	if err != nil {
		return err
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		previous, err := loadRecord(txn, record.ID)
		if err != nil {
			return err
		}
		if previous != nil {
			if err := txn.Delete(senderIndexKey(previous.Sender, previous.Nonce, previous.ID)); err != nil {
				return err
			}
		}
		if err := txn.Set(submissionKey(record.ID), data); err != nil {
			return err
		}
		if err := txn.Set(senderIndexKey(record.Sender, record.Nonce, record.ID), []byte(record.ID)); err != nil {
			return err
		}

		raw, err := getValue(txn, lastNonceKey(record.Sender))
		if err != nil {
			return err
		}
		if raw != nil && len(raw) != 8 {
			return fmt.Errorf("invalid last nonce data length: %d", len(raw))
		}
		if raw == nil || record.Nonce > binary.BigEndian.Uint64(raw) {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, record.Nonce)
			return txn.Set(lastNonceKey(record.Sender), buf)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to save submission %s", record.ID)
	}
	return nil
}

// LoadSubmission retrieves a record by ID
func (b *BadgerJournal) LoadSubmission(id string) (*persistence.SubmissionRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	var record *persistence.SubmissionRecord
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		record, err = loadRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load submission %s", id)
	}
	return record, nil
}

// ListSubmissions walks the sender index, which is already in nonce order
func (b *BadgerJournal) ListSubmissions(sender string) ([]*persistence.SubmissionRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	records := make([]*persistence.SubmissionRecord, 0)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = senderPrefix(sender)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read index value: %w", err)
			}
			record, err := loadRecord(txn, string(id))
			if err != nil {
				b.logger.Sugar().Warnw("Failed to load indexed submission, skipping",
					"key", string(it.Item().Key()), "error", err)
				continue
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list submissions of %s", sender)
	}
	persistence.SortSubmissions(records)
	return records, nil
}

// DeleteSubmission removes a record and its index entry
func (b *BadgerJournal) DeleteSubmission(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		record, err := loadRecord(txn, id)
		if err != nil || record == nil {
			return err
		}
		if err := txn.Delete(senderIndexKey(record.Sender, record.Nonce, record.ID)); err != nil {
			return err
		}
		return txn.Delete(submissionKey(id))
	})
}

// GetLastNonce returns the highest nonce recorded for sender
func (b *BadgerJournal) GetLastNonce(sender string) (uint64, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, false, fmt.Errorf("persistence layer is closed")
	}

	var raw []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		raw, err = getValue(txn, lastNonceKey(sender))
		return err
	})
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get last nonce")
	}
	if raw == nil {
		return 0, false, nil
	}
	if len(raw) != 8 {
		return 0, false, fmt.Errorf("invalid last nonce data length: %d", len(raw))
	}
	return binary.BigEndian.Uint64(raw), true, nil
}

// Close shuts down the journal
func (b *BadgerJournal) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return errors.Wrap(err, "failed to close badger database")
	}

	b.logger.Sugar().Info("Badger journal closed")
	return nil
}

// HealthCheck verifies the database is readable
func (b *BadgerJournal) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
