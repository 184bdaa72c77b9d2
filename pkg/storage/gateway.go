package storage

import (
	"context"

	"xwatch/pkg/models"
)

// Gateway is the persistence boundary of the crawler. Lookups return
// (nil, nil) when the key is unknown. Writes are idempotent by primary key:
// users by User_ID, posts by Post_ID; change events are append-only.
type Gateway interface {
	// GetUser looks a user up by handle, ignoring case
	GetUser(ctx context.Context, handle string) (*models.UserProfile, error)
	// UpsertUser stores u. When previousID is set and differs from u.Handle,
	// the row stored under previousID is renamed rather than duplicated.
	UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error
	// RecordSighting bumps a user's Tweet_Count, creating a bare row with
	// count 1 for unknown handles. It reports whether a row was created.
	RecordSighting(ctx context.Context, handle, name string) (bool, error)
	// GetPost looks a post up by id
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	// AppendPostIfNew stores p unless its id is already present
	AppendPostIfNew(ctx context.Context, p models.Post) (bool, error)
	// AmendPost replaces the content and like count of a stored post
	AmendPost(ctx context.Context, p models.Post) error
	// AppendChange appends one row to the change log
	AppendChange(ctx context.Context, e models.ChangeEvent) error
	// Close releases the backend
	Close() error
}
