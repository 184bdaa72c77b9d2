package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/models"
	"xwatch/pkg/retry"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "UsersTable.csv")

	require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "v1")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	failed := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("encoder failed")
	})
	require.Error(t, failed)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "failed write leaves the old file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestLockIsExclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	require.NoError(t, err)

	_, err = AcquireLock(dir)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())
	second, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, second.Release())
	assert.NoError(t, second.Release())
}

func TestLockRecordsOwnerPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockFileName)
	require.NoError(t, os.WriteFile(path, []byte("999999999\nstale\n"), 0644))

	lock, err := AcquireLock(dir)
	require.NoError(t, err)
	defer lock.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestWriteOwnerReportsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), lockFileName)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Error(t, writeOwner(f), "a read-only handle cannot be rewritten")
}

type flakyGateway struct {
	failures int
	calls    int
	err      error
	posts    map[string]models.Post
}

func (f *flakyGateway) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyGateway) GetUser(ctx context.Context, handle string) (*models.UserProfile, error) {
	return nil, f.fail()
}

func (f *flakyGateway) UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error {
	return f.fail()
}

func (f *flakyGateway) RecordSighting(ctx context.Context, handle, name string) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	return true, nil
}

func (f *flakyGateway) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	if p, ok := f.posts[postID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *flakyGateway) AppendPostIfNew(ctx context.Context, p models.Post) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	if _, ok := f.posts[p.PostID]; ok {
		return false, nil
	}
	f.posts[p.PostID] = p
	return true, nil
}

func (f *flakyGateway) AmendPost(ctx context.Context, p models.Post) error { return f.fail() }

func (f *flakyGateway) AppendChange(ctx context.Context, e models.ChangeEvent) error {
	return f.fail()
}

func (f *flakyGateway) Close() error { return nil }

func newRetrying(next Gateway, attempts int) *Retrying {
	return NewRetrying(next, attempts, logger.NewNopLogger()).WithBackoff(retry.Constant(time.Millisecond))
}

func TestRetryingRecoversFromTransientFailures(t *testing.T) {
	inner := &flakyGateway{failures: 2, err: errors.New("file busy"), posts: map[string]models.Post{}}
	gw := newRetrying(inner, 3)

	added, err := gw.AppendPostIfNew(context.Background(), models.Post{PostID: "1"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 3, inner.calls)

	p, err := gw.GetPost(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestRetryingReportsPersistenceError(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: errors.New("disk full")}
	gw := newRetrying(inner, 2)

	err := gw.AppendChange(context.Background(), models.ChangeEvent{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypePersistence))
	assert.True(t, errs.IsRecoverable(err))
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingStopsOnCancellation(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: errors.New("busy")}
	gw := NewRetrying(inner, 5, logger.NewNopLogger()).WithBackoff(retry.Constant(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gw.UpsertUser(ctx, "", models.UserProfile{Handle: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}
