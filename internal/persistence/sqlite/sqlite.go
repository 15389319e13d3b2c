// Package sqlite stores the booking ledger snapshot in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-ledger/internal/persistence"
	"github.com/example/room-ledger/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage is a persistence.SnapshotStore backed by a single table row.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger
	now    func() time.Time
}

var _ persistence.SnapshotStore = (*Storage)(nil)

// Option configures Storage.
type Option func(*Storage)

// WithLogger sets the logger used for migrations and storage diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the database at dsn. Call Migrate before first use.
func Open(ctx context.Context, dsn string, opts ...Option) (*Storage, error) {
	return OpenWithConfig(ctx, migration.DefaultSQLiteConfig(dsn), opts...)
}

// OpenWithConfig connects using explicit connection settings.
func OpenWithConfig(ctx context.Context, cfg migration.SQLiteConfig, opts ...Option) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Storage{pool: pool, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or persistence.ErrNotFound when the ledger
// has never been saved.
func (s *Storage) Load(ctx context.Context) (persistence.Snapshot, error) {
	var document, checksum string
	err := s.pool.DB().QueryRowContext(ctx,
		`SELECT document, checksum FROM ledger_snapshots WHERE id = 1`,
	).Scan(&document, &checksum)
	if err != nil {
		return nil, mapError(err)
	}

	if err := persistence.VerifyChecksum([]byte(document), checksum); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return persistence.Decode([]byte(document))
}

// Save replaces the stored snapshot in one transaction.
func (s *Storage) Save(ctx context.Context, snapshot persistence.Snapshot) error {
	document, err := persistence.Encode(snapshot)
	if err != nil {
		return err
	}
	checksum := persistence.Checksum(document)
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	err = s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_snapshots (id, document, checksum, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document = excluded.document,
				checksum = excluded.checksum,
				updated_at = excluded.updated_at`,
			string(document), checksum, updatedAt)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdatedAt reports when the snapshot was last saved.
func (s *Storage) UpdatedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.pool.DB().QueryRowContext(ctx, `SELECT updated_at FROM ledger_snapshots WHERE id = 1`).Scan(&value)
	if err != nil {
		return time.Time{}, mapError(err)
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Ping checks database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
