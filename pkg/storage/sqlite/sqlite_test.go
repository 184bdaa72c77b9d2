package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwatch/pkg/logger"
	"xwatch/pkg/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "xwatch.db"), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	got, err := s.GetUser(ctx, "jack")
	require.NoError(t, err)
	assert.Nil(t, got)

	u := models.UserProfile{
		Handle:     "jack",
		Name:       models.Some("Jack"),
		Location:   models.Some("SF"),
		Following:  models.Some(int64(0)),
		Followers:  models.Some(int64(1500)),
		TweetCount: 2,
	}
	require.NoError(t, s.UpsertUser(ctx, "", u))

	got, err = s.GetUser(ctx, "@JACK")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, *got)

	u.Followers = models.None[int64]()
	require.NoError(t, s.UpsertUser(ctx, "", u))
	got, err = s.GetUser(ctx, "jack")
	require.NoError(t, err)
	assert.False(t, got.Followers.IsSet())
}

func TestUpsertUserRename(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "", models.UserProfile{Handle: "old", TweetCount: 7}))
	require.NoError(t, s.UpsertUser(ctx, "old", models.UserProfile{Handle: "new", TweetCount: 7}))

	old, err := s.GetUser(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	renamed, err := s.GetUser(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, int64(7), renamed.TweetCount)
}

func TestUpsertUserRenameMergesSightedRow(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, "", models.UserProfile{Handle: "old", Name: models.Some("Old"), TweetCount: 2}))
	created, err := s.RecordSighting(ctx, "new", "New")
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, s.UpsertUser(ctx, "old", models.UserProfile{Handle: "new", Name: models.Some("Old"), TweetCount: 2}))

	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&rows))
	assert.Equal(t, 1, rows)

	old, err := s.GetUser(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, old)

	merged, err := s.GetUser(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, int64(3), merged.TweetCount, "sightings from both rows are kept")
	assert.Equal(t, models.Some("Old"), merged.Name)
}

func TestRecordSighting(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created, err := s.RecordSighting(ctx, "@alice", "Alice")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RecordSighting(ctx, "Alice", "")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.TweetCount)
	assert.Equal(t, models.Some("Alice"), u.Name)
}

func TestPosts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	p := models.Post{
		PostID:       "1790000000000000001",
		AuthorHandle: "jack",
		AuthorName:   "Jack",
		Content:      "hello",
		PublishDate:  "2024-05-01",
		Likes:        3,
	}

	added, err := s.AppendPostIfNew(ctx, p)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AppendPostIfNew(ctx, p)
	require.NoError(t, err)
	assert.False(t, added)

	p.Content, p.Likes = "hello, edited", 30
	require.NoError(t, s.AmendPost(ctx, p))

	got, err := s.GetPost(ctx, p.PostID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)

	assert.Error(t, s.AmendPost(ctx, models.Post{PostID: "404"}))
}

func TestChanges(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	events := []models.ChangeEvent{
		{SubjectID: "jack", SubjectName: "Jack", Field: models.ColFollowers, OldValue: "10", NewValue: "12", Delta: models.DeltaOf(2), Timestamp: ts},
		{SubjectID: "bob", SubjectName: "Bob", Field: models.ColWebsite, OldValue: "x", NewValue: "y", Delta: models.DeltaOf(0), Timestamp: ts},
		{SubjectID: "jack", SubjectName: "Jack", Field: models.ColUserID, OldValue: "jack", NewValue: "jack2", Timestamp: ts},
	}
	for _, e := range events {
		require.NoError(t, s.AppendChange(ctx, e))
	}

	all, err := s.ListChanges(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, events, all)

	jack, err := s.ListChanges(ctx, "jack")
	require.NoError(t, err)
	assert.Len(t, jack, 2)
	assert.False(t, jack[1].Delta.Valid)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xwatch.db")
	s, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	_, err = s.AppendPostIfNew(context.Background(), models.Post{PostID: "1", AuthorHandle: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetPost(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
