package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/models"
	"xwatch/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
  user_id       TEXT PRIMARY KEY COLLATE NOCASE,
  user_name     TEXT,
  bio           TEXT,
  location      TEXT,
  website       TEXT,
  birth_date    TEXT,
  join_date     TEXT,
  following     INTEGER,
  followers     INTEGER,
  profile_image TEXT,
  cover_image   TEXT,
  tweet_count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS posts (
  post_id      TEXT PRIMARY KEY,
  user_id      TEXT NOT NULL,
  user_name    TEXT NOT NULL DEFAULT '',
  content      TEXT NOT NULL DEFAULT '',
  post_date    TEXT NOT NULL DEFAULT '',
  likes        INTEGER NOT NULL DEFAULT 0,
  hashtag      TEXT
);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);
CREATE TABLE IF NOT EXISTS changes (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id       TEXT NOT NULL,
  user_name     TEXT NOT NULL DEFAULT '',
  changed_field TEXT NOT NULL,
  prev_value    TEXT NOT NULL DEFAULT '',
  curr_value    TEXT NOT NULL DEFAULT '',
  delta         REAL,
  ts            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_user ON changes(user_id);
`

// Store is a Gateway backed by an embedded SQLite database
type Store struct {
	db  *sql.DB
	log logger.Logger
}

var _ storage.Gateway = (*Store)(nil)

// Open opens or creates the database at path and applies the schema
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "open database")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "configure database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "apply schema")
	}

	log.WithField("component", "storage").InfoWithFields("SQLite storage ready", map[string]interface{}{
		"path": path,
	})
	return &Store{db: db, log: log.WithField("component", "storage")}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

func nullString(o models.Opt[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullInt(o models.Opt[int64]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: v, Valid: ok}
}

func optString(n sql.NullString) models.Opt[string] {
	if !n.Valid || n.String == "" {
		return models.None[string]()
	}
	return models.Some(n.String)
}

func optInt(n sql.NullInt64) models.Opt[int64] {
	if !n.Valid {
		return models.None[int64]()
	}
	return models.Some(n.Int64)
}

const userColumns = `user_id, user_name, bio, location, website, birth_date, join_date,
  following, followers, profile_image, cover_image, tweet_count`

func (s *Store) GetUser(ctx context.Context, handle string) (*models.UserProfile, error) {
	var u models.UserProfile
	var name, bio, location, website, birthDate, joinDate, profileImg, coverImg sql.NullString
	var following, followers sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, normalizeHandle(handle)).
		Scan(&u.Handle, &name, &bio, &location, &website, &birthDate, &joinDate,
			&following, &followers, &profileImg, &coverImg, &u.TweetCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "get user")
	}

	u.Name, u.Bio, u.Location, u.Website = optString(name), optString(bio), optString(location), optString(website)
	u.BirthDate, u.JoinDate = optString(birthDate), optString(joinDate)
	u.Following, u.Followers = optInt(following), optInt(followers)
	u.ProfileImage, u.CoverImage = optString(profileImg), optString(coverImg)
	return &u, nil
}

func (s *Store) UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "begin upsert")
	}
	defer tx.Rollback()

	handle := normalizeHandle(u.Handle)
	if prev := normalizeHandle(previousID); prev != "" && !strings.EqualFold(prev, handle) {
		if err := s.mergeRenamed(ctx, tx, prev, handle, &u); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		  user_id = excluded.user_id,
		  user_name = excluded.user_name,
		  bio = excluded.bio,
		  location = excluded.location,
		  website = excluded.website,
		  birth_date = excluded.birth_date,
		  join_date = excluded.join_date,
		  following = excluded.following,
		  followers = excluded.followers,
		  profile_image = excluded.profile_image,
		  cover_image = excluded.cover_image,
		  tweet_count = excluded.tweet_count`,
		handle, nullString(u.Name), nullString(u.Bio), nullString(u.Location), nullString(u.Website),
		nullString(u.BirthDate), nullString(u.JoinDate), nullInt(u.Following), nullInt(u.Followers),
		nullString(u.ProfileImage), nullString(u.CoverImage), u.TweetCount)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "upsert user")
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "commit upsert")
	}
	return nil
}

// mergeRenamed moves the row stored under prev to handle. A row already
// stored under handle is deleted and its sighting count added to u.
func (s *Store) mergeRenamed(ctx context.Context, tx *sql.Tx, prev, handle string, u *models.UserProfile) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = ?)`, prev).Scan(&exists)
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "look up renamed user")
	}
	if !exists {
		return nil
	}

	var sightings int64
	err = tx.QueryRowContext(ctx, `SELECT tweet_count FROM users WHERE user_id = ?`, handle).Scan(&sightings)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return errs.Wrap(errs.ErrorTypePersistence, err, "look up user")
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, handle); err != nil {
			return errs.Wrap(errs.ErrorTypePersistence, err, "merge user")
		}
		u.TweetCount += sightings
		s.log.InfoWithFields("Merged duplicate user row", map[string]interface{}{
			"previous": prev,
			"handle":   handle,
		})
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET user_id = ? WHERE user_id = ?`, handle, prev); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "rename user")
	}
	return nil
}

func (s *Store) RecordSighting(ctx context.Context, handle, name string) (bool, error) {
	handle = normalizeHandle(handle)
	res, err := s.db.ExecContext(ctx, `UPDATE users SET tweet_count = tweet_count + 1 WHERE user_id = ?`, handle)
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "record sighting")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	var userName sql.NullString
	if name != "" {
		userName = sql.NullString{String: name, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (user_id, user_name, tweet_count) VALUES (?, ?, 1)
		ON CONFLICT(user_id) DO UPDATE SET tweet_count = tweet_count + 1`, handle, userName)
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "insert sighted user")
	}
	return true, nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var (
		p       models.Post
		hashtag sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT post_id, user_id, user_name, content, post_date, likes, hashtag
		FROM posts WHERE post_id = ?`, strings.TrimSpace(postID)).
		Scan(&p.PostID, &p.AuthorHandle, &p.AuthorName, &p.Content, &p.PublishDate, &p.Likes, &hashtag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "get post")
	}
	p.Hashtag = optString(hashtag)
	return &p, nil
}

func (s *Store) AppendPostIfNew(ctx context.Context, p models.Post) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO posts (post_id, user_id, user_name, content, post_date, likes, hashtag)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(post_id) DO NOTHING`,
		strings.TrimSpace(p.PostID), p.AuthorHandle, p.AuthorName, p.Content, p.PublishDate, p.Likes, nullString(p.Hashtag))
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "append post")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "append post")
	}
	return n > 0, nil
}

func (s *Store) AmendPost(ctx context.Context, p models.Post) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET content = ?, likes = ? WHERE post_id = ?`,
		p.Content, p.Likes, strings.TrimSpace(p.PostID))
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "amend post")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.ErrorTypePersistence, fmt.Sprintf("post %s not stored", p.PostID))
	}
	return nil
}

func (s *Store) AppendChange(ctx context.Context, e models.ChangeEvent) error {
	var delta sql.NullFloat64
	if e.Delta.Valid {
		delta = sql.NullFloat64{Float64: e.Delta.Value, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO changes (user_id, user_name, changed_field, prev_value, curr_value, delta, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SubjectID, e.SubjectName, e.Field, e.OldValue, e.NewValue, delta, e.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "append change")
	}
	return nil
}

// ListChanges returns the change log for one subject, oldest first. An
// empty subject lists everything.
func (s *Store) ListChanges(ctx context.Context, subject string) ([]models.ChangeEvent, error) {
	query := `SELECT user_id, user_name, changed_field, prev_value, curr_value, delta, ts FROM changes`
	var args []interface{}
	if subject != "" {
		query += ` WHERE user_id = ?`
		args = append(args, subject)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "list changes")
	}
	defer rows.Close()

	var out []models.ChangeEvent
	for rows.Next() {
		var (
			e     models.ChangeEvent
			delta sql.NullFloat64
			ts    string
		)
		if err := rows.Scan(&e.SubjectID, &e.SubjectName, &e.Field, &e.OldValue, &e.NewValue, &delta, &ts); err != nil {
			return nil, errs.Wrap(errs.ErrorTypePersistence, err, "scan change")
		}
		if delta.Valid {
			e.Delta = models.DeltaOf(delta.Float64)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
