// Package redis stores the ledger snapshot in a Redis hash.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/room-ledger/internal/persistence"
)

// DefaultKey is the hash that holds the snapshot unless configured otherwise.
const DefaultKey = "roombook:ledger"

const (
	fieldDocument  = "document"
	fieldChecksum  = "checksum"
	fieldUpdatedAt = "updated_at"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Store is a persistence.SnapshotStore backed by one Redis hash.
type Store struct {
	client goredis.UniversalClient
	key    string
	now    func() time.Time
}

var _ persistence.SnapshotStore = (*Store)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Key), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key, now: time.Now}
}

// Key returns the hash key the snapshot lives under.
func (s *Store) Key() string {
	return s.key
}

// Load fetches the document and verifies its checksum.
func (s *Store) Load(ctx context.Context) (persistence.Snapshot, error) {
	values, err := s.client.HMGet(ctx, s.key, fieldDocument, fieldChecksum).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load %s: %w", s.key, err)
	}

	document, _ := values[0].(string)
	checksum, _ := values[1].(string)
	if document == "" {
		return nil, persistence.ErrNotFound
	}
	if err := persistence.VerifyChecksum([]byte(document), checksum); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return persistence.Decode([]byte(document))
}

// Save replaces all fields of the hash in one MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, snapshot persistence.Snapshot) error {
	document, err := persistence.Encode(snapshot)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, s.key,
			fieldDocument, string(document),
			fieldChecksum, persistence.Checksum(document),
			fieldUpdatedAt, s.now().UTC().Format(time.RFC3339Nano),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save %s: %w", s.key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
