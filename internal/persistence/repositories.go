package persistence

import "context"

// SnapshotStore keeps the single durable ledger artifact. Save replaces the prior
// content wholesale; Load returns ErrNotFound when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
