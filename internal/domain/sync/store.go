package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the local side of a sync exchange. Unlike the domain
// repositories, its reads include tombstones; deletions have to be visible
// to propagate.
type Store interface {
	// ListChangedSince returns every record, tombstones included, whose
	// last_modified is strictly after since, parents before children.
	ListChangedSince(ctx context.Context, since time.Time) ([]*Record, error)

	// Get returns the record regardless of tombstone state, or
	// db.ErrNotFound when the id has never been seen.
	Get(ctx context.Context, entityType string, id uuid.UUID) (*Record, error)

	// Upsert applies a record if it wins the merge against the stored copy.
	// Losing records are dropped silently; sync retries are idempotent.
	Upsert(ctx context.Context, rec *Record) error

	// MarkDeleted tombstones the id if at is not older than the stored
	// timestamp. Unknown ids are ignored.
	MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error

	// Cursor and SetCursor persist the high-water mark of the last completed
	// reconciliation pass, so an interrupted pass resumes instead of
	// restarting from zero.
	Cursor(ctx context.Context) (time.Time, error)
	SetCursor(ctx context.Context, at time.Time) error
}
