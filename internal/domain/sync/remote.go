package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// Remote is the other replica in a sync exchange. The three calls mirror
// the collaborator surface this service exposes over HTTP, so any two
// deployments can sync against each other.
type Remote interface {
	ListChangedSince(ctx context.Context, since time.Time) ([]*Record, error)
	Upsert(ctx context.Context, rec *Record) error
	MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error
}

type restyRemote struct {
	client *resty.Client
}

// NewRemote builds an HTTP remote against baseURL. The API key rides in a
// header on every call.
func NewRemote(baseURL, apiKey string) Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(30 * time.Second)
	if apiKey != "" {
		client.SetHeader(auth.APIKeyHeader, apiKey)
	}
	return &restyRemote{client: client}
}

func (r *restyRemote) ListChangedSince(ctx context.Context, since time.Time) ([]*Record, error) {
	var out []*Record
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("since", since.UTC().Format(time.RFC3339Nano)).
		SetResult(&out).
		Get("/api/v1/sync/changes")
	if err != nil {
		return nil, fmt.Errorf("list remote changes: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list remote changes: %s", resp.Status())
	}
	return out, nil
}

func (r *restyRemote) Upsert(ctx context.Context, rec *Record) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(rec).
		Post("/api/v1/sync/records")
	if err != nil {
		return fmt.Errorf("push record %s/%s: %w", rec.EntityType, rec.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("push record %s/%s: %s", rec.EntityType, rec.ID, resp.Status())
	}
	return nil
}

func (r *restyRemote) MarkDeleted(ctx context.Context, entityType string, id uuid.UUID, at time.Time) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"entity_type":   entityType,
			"id":            id,
			"last_modified": at.UTC().Format(time.RFC3339Nano),
		}).
		Post("/api/v1/sync/tombstones")
	if err != nil {
		return fmt.Errorf("push tombstone %s/%s: %w", entityType, id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("push tombstone %s/%s: %s", entityType, id, resp.Status())
	}
	return nil
}
