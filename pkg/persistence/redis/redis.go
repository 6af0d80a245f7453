package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
)

// Key layout
const (
	keyPrefixSubmission  = "bridge:submission:"
	keyPrefixSenderIndex = "bridge:sender:"
	keyPrefixLastNonce   = "bridge:nonce:"
	keySchemaVersion     = "bridge:metadata:schema_version"

	operationTimeout = 5 * time.Second
)

// raiseNonce stores ARGV[1] in KEYS[1] unless the current value is higher. Nonces are
// zero-padded to a fixed width so string comparison is numeric comparison.
var raiseNonce = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if (not current) or ARGV[1] > current then
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisJournal is an IJournal shared through Redis, for several operators submitting
// from the same account.
type RedisJournal struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IJournal = (*RedisJournal)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "ghostnet:" gives "ghostnet:bridge:nonce:tz1...".
	KeyPrefix string
}

// NewRedisJournal connects to Redis and checks the schema version.
func NewRedisJournal(cfg *RedisConfig, logger *zap.Logger) (*RedisJournal, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to Redis at %s", cfg.Address)
	}

	rj := &RedisJournal{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rj.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	logger.Sugar().Infow("Redis journal initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rj, nil
}

func (r *RedisJournal) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisJournal) submissionKey(id string) string {
	return r.prefixKey(keyPrefixSubmission + id)
}

func (r *RedisJournal) senderKey(sender string) string {
	return r.prefixKey(keyPrefixSenderIndex + sender)
}

func (r *RedisJournal) lastNonceKey(sender string) string {
	return r.prefixKey(keyPrefixLastNonce + sender)
}

func encodeNonce(nonce uint64) string {
	return fmt.Sprintf("%020d", nonce)
}

// initSchema initializes or validates the schema version
func (r *RedisJournal) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, persistence.SchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != persistence.SchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, persistence.SchemaVersion)
	}
	return nil
}

func (r *RedisJournal) load(ctx context.Context, id string) (*persistence.SubmissionRecord, error) {
	data, err := r.client.Get(ctx, r.submissionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return persistence.UnmarshalSubmissionRecord(data)
}

// SaveSubmission stores the record, moves its sender index entry and raises the last nonce in one MULTI block.
func (r *RedisJournal) SaveSubmission(record *persistence.SubmissionRecord) error {
	if err := persistence.ValidateSubmissionRecord(record); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := persistence.MarshalSubmissionRecord(record)
	if err != nil {
		return err
	}

	previous, err := r.load(ctx, record.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to read previous submission %s", record.ID)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil {
			pipe.ZRem(ctx, r.senderKey(previous.Sender), previous.ID)
		}
		pipe.Set(ctx, r.submissionKey(record.ID), data, 0)
		pipe.ZAdd(ctx, r.senderKey(record.Sender), redis.Z{Score: float64(record.Nonce), Member: record.ID})
		raiseNonce.Eval(ctx, pipe, []string{r.lastNonceKey(record.Sender)}, encodeNonce(record.Nonce))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to save submission %s", record.ID)
	}
	return nil
}

// LoadSubmission retrieves a record by ID
func (r *RedisJournal) LoadSubmission(id string) (*persistence.SubmissionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	record, err := r.load(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load submission %s", id)
	}
	return record, nil
}

// ListSubmissions reads the sender index and fetches the records with MGET
func (r *RedisJournal) ListSubmissions(sender string) ([]*persistence.SubmissionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	ids, err := r.client.ZRange(ctx, r.senderKey(sender), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list submission ids of %s", sender)
	}

	records := make([]*persistence.SubmissionRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.submissionKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch submissions")
	}

	for i, val := range values {
		if val == nil {
			continue
		}
		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for SubmissionRecord", "key", keys[i])
			continue
		}
		record, err := persistence.UnmarshalSubmissionRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal SubmissionRecord, skipping",
				"key", keys[i], "error", err)
			continue
		}
		records = append(records, record)
	}

	persistence.SortSubmissions(records)
	return records, nil
}

// DeleteSubmission removes a record and its index entry
func (r *RedisJournal) DeleteSubmission(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	record, err := r.load(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to read submission %s", id)
	}
	if record == nil {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, r.senderKey(record.Sender), id)
		pipe.Del(ctx, r.submissionKey(id))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete submission %s", id)
	}
	return nil
}

// GetLastNonce returns the highest nonce recorded for sender
func (r *RedisJournal) GetLastNonce(sender string) (uint64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, false, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.lastNonceKey(sender)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get last nonce")
	}

	nonce, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "invalid last nonce %q", raw)
	}
	return nonce, true, nil
}

// Close shuts down the journal
func (r *RedisJournal) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return errors.Wrap(err, "failed to close Redis client")
	}

	r.logger.Sugar().Info("Redis journal closed")
	return nil
}

// HealthCheck pings Redis and checks the schema key
func (r *RedisJournal) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis health check failed")
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return errors.Wrap(err, "failed to verify schema version")
	}
	return nil
}
