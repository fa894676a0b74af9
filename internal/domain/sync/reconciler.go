package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/timefmt"
)

// Reconciler runs one pull/push pass between the local store and a remote
// replica. The pass is single-threaded and keyed off the persisted cursor:
// interrupt it anywhere and the next run resumes from the last completed
// pass, re-applying at most one window of idempotent merges.
type Reconciler struct {
	store  Store
	remote Remote
	log    zerolog.Logger
	now    func() time.Time
}

func NewReconciler(store Store, remote Remote, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, remote: remote, log: log, now: time.Now}
}

// Stats summarizes one reconciliation pass.
type Stats struct {
	Pulled  int
	Applied int
	Pushed  int
	Cursor  time.Time
}

// Run pulls remote changes since the cursor and merges them locally, pushes
// local changes the remote has not seen, then advances the cursor. Merge
// conflicts resolve per last-write-wins; losing copies are dropped, never
// errors.
func (r *Reconciler) Run(ctx context.Context) (*Stats, error) {
	cursor, err := r.store.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	// Capture the window end before pulling so changes landing mid-pass are
	// picked up next time instead of being skipped.
	passEnd := r.now().UTC()

	stats := &Stats{}

	remoteChanges, err := r.remote.ListChangedSince(ctx, cursor)
	if err != nil {
		return nil, err
	}
	stats.Pulled = len(remoteChanges)
	for _, rec := range remoteChanges {
		applied, err := r.applyRemote(ctx, rec)
		if err != nil {
			return nil, err
		}
		if applied {
			stats.Applied++
		}
	}

	localChanges, err := r.store.ListChangedSince(ctx, cursor)
	if err != nil {
		return nil, err
	}
	for _, rec := range localChanges {
		if rec.IsDeleted {
			err = r.remote.MarkDeleted(ctx, rec.EntityType, rec.ID, rec.LastModified)
		} else {
			err = r.remote.Upsert(ctx, rec)
		}
		if err != nil {
			return nil, err
		}
		stats.Pushed++
	}

	if err := r.store.SetCursor(ctx, passEnd); err != nil {
		return nil, err
	}
	stats.Cursor = passEnd

	window := "full history"
	if !cursor.IsZero() {
		window = timefmt.ElapsedSince(cursor, passEnd)
	}
	r.log.Info().
		Int("pulled", stats.Pulled).
		Int("applied", stats.Applied).
		Int("pushed", stats.Pushed).
		Str("window", window).
		Time("cursor", stats.Cursor).
		Msg("sync pass complete")
	return stats, nil
}

// applyRemote merges one remote record into the local store. Returns whether
// the remote copy won.
func (r *Reconciler) applyRemote(ctx context.Context, rec *Record) (bool, error) {
	if !ValidEntityType(rec.EntityType) {
		r.log.Warn().Str("entity_type", rec.EntityType).Msg("skipping unknown entity type")
		return false, nil
	}
	local, err := r.store.Get(ctx, rec.EntityType, rec.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return false, err
	}
	if Merge(local, rec) != rec {
		return false, nil
	}
	if err := r.store.Upsert(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}
