package storage

import (
	"context"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/models"
	"xwatch/pkg/retry"
)

// Retrying wraps a Gateway so each operation is retried with backoff and
// any final failure surfaces as a persistence error.
type Retrying struct {
	next   Gateway
	policy retry.Policy
}

// NewRetrying wraps next with up to attempts tries per operation
func NewRetrying(next Gateway, attempts int, log logger.Logger) *Retrying {
	if log != nil {
		log = log.WithField("component", "storage")
	}
	return &Retrying{next: next, policy: retry.StoragePolicy(attempts, log)}
}

// WithBackoff replaces the wait between attempts
func (r *Retrying) WithBackoff(b retry.Backoff) *Retrying {
	p := r.policy
	p.Backoff = b
	return &Retrying{next: r.next, policy: p}
}

func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	err := r.policy.Do(ctx, func(context.Context) error { return fn() })
	if err == nil || errs.TypeOf(err) == errs.ErrorTypePersistence {
		return err
	}
	return errs.Wrap(errs.ErrorTypePersistence, err, op)
}

func (r *Retrying) GetUser(ctx context.Context, handle string) (*models.UserProfile, error) {
	var u *models.UserProfile
	err := r.do(ctx, "get user", func() (err error) {
		u, err = r.next.GetUser(ctx, handle)
		return err
	})
	return u, err
}

func (r *Retrying) UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error {
	return r.do(ctx, "upsert user", func() error {
		return r.next.UpsertUser(ctx, previousID, u)
	})
}

func (r *Retrying) RecordSighting(ctx context.Context, handle, name string) (bool, error) {
	var created bool
	err := r.do(ctx, "record sighting", func() (err error) {
		created, err = r.next.RecordSighting(ctx, handle, name)
		return err
	})
	return created, err
}

func (r *Retrying) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var p *models.Post
	err := r.do(ctx, "get post", func() (err error) {
		p, err = r.next.GetPost(ctx, postID)
		return err
	})
	return p, err
}

func (r *Retrying) AppendPostIfNew(ctx context.Context, p models.Post) (bool, error) {
	var added bool
	err := r.do(ctx, "append post", func() (err error) {
		added, err = r.next.AppendPostIfNew(ctx, p)
		return err
	})
	return added, err
}

func (r *Retrying) AmendPost(ctx context.Context, p models.Post) error {
	return r.do(ctx, "amend post", func() error {
		return r.next.AmendPost(ctx, p)
	})
}

func (r *Retrying) AppendChange(ctx context.Context, e models.ChangeEvent) error {
	return r.do(ctx, "append change", func() error {
		return r.next.AppendChange(ctx, e)
	})
}

func (r *Retrying) Close() error {
	return r.next.Close()
}
