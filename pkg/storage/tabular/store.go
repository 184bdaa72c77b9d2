package tabular

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
	"xwatch/pkg/models"
	"xwatch/pkg/storage"
)

// File base names inside the storage directory
const (
	UsersFile   = "UsersTable"
	PostsFile   = "PostsTable"
	ChangesFile = "Changes"
)

var numericColumns = map[string]bool{
	models.ColFollowing:  true,
	models.ColFollowers:  true,
	models.ColTweetCount: true,
	models.ColLikes:      true,
}

// Store keeps users, posts and changes in three spreadsheet or CSV files.
// Every operation reads the whole file, modifies it and replaces it
// atomically.
type Store struct {
	mu      sync.Mutex
	dir     string
	users   *table
	posts   *table
	changes *table
	log     logger.Logger
}

var _ storage.Gateway = (*Store)(nil)

// Open prepares the three tables under dir, creating any that are missing
func Open(dir, format string, log logger.Logger) (*Store, error) {
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}

	newTable := func(name string, columns []string) *table {
		return &table{
			path:    filepath.Join(dir, name+codec.Ext()),
			columns: columns,
			numeric: numericColumns,
			codec:   codec,
		}
	}
	s := &Store{
		dir:     dir,
		users:   newTable(UsersFile, models.UserColumns),
		posts:   newTable(PostsFile, models.PostColumns),
		changes: newTable(ChangesFile, models.ChangeColumns),
		log:     log.WithField("component", "storage"),
	}

	for _, t := range []*table{s.users, s.posts, s.changes} {
		if err := t.ensure(); err != nil {
			return nil, errs.Wrap(errs.ErrorTypePersistence, err, "create "+filepath.Base(t.path))
		}
	}
	s.log.InfoWithFields("Tabular storage ready", map[string]interface{}{
		"directory": dir,
		"format":    format,
	})
	return s, nil
}

// Paths returns the users, posts and changes file locations
func (s *Store) Paths() (users, posts, changes string) {
	return s.users.path, s.posts.path, s.changes.path
}

func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

func handleMatcher(handle string) func(map[string]string) bool {
	handle = normalizeHandle(handle)
	return func(row map[string]string) bool {
		return strings.EqualFold(normalizeHandle(row[models.ColUserID]), handle)
	}
}

func postMatcher(id string) func(map[string]string) bool {
	id = strings.TrimSpace(id)
	return func(row map[string]string) bool {
		return strings.TrimSpace(row[models.ColPostID]) == id
	}
}

func decodeUser(row map[string]string) *models.UserProfile {
	u := models.UserFromRow(row)
	u.Handle = normalizeHandle(u.Handle)
	return &u
}

func (s *Store) GetUser(ctx context.Context, handle string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.users.load()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "read users")
	}
	if i := sh.find(handleMatcher(handle)); i >= 0 {
		return decodeUser(sh.rows[i]), nil
	}
	return nil, nil
}

func (s *Store) UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.users.load()
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "read users")
	}

	key := u.Handle
	if previousID != "" {
		key = previousID
	}
	i := sh.find(handleMatcher(key))
	if i < 0 && key != u.Handle {
		i = sh.find(handleMatcher(u.Handle))
	}
	if i >= 0 && !strings.EqualFold(normalizeHandle(key), normalizeHandle(u.Handle)) {
		// a row already holding the new handle (usually one created by
		// sightings) is folded into the renamed row
		if j := sh.find(handleMatcher(u.Handle)); j >= 0 && j != i {
			u.TweetCount += models.ParseCount(sh.rows[j][models.ColTweetCount]).OrElse(0)
			sh.rows = append(sh.rows[:j], sh.rows[j+1:]...)
			if j < i {
				i--
			}
			s.log.InfoWithFields("Merged duplicate user row", map[string]interface{}{
				"previous": key,
				"handle":   u.Handle,
			})
		}
	}
	if i < 0 {
		sh.rows = append(sh.rows, map[string]string{})
		i = len(sh.rows) - 1
	}
	set(sh.rows[i], models.UserColumns, u.Row())

	if err := s.users.save(sh); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "write users")
	}
	return nil
}

func (s *Store) RecordSighting(ctx context.Context, handle, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.users.load()
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "read users")
	}

	created := false
	if i := sh.find(handleMatcher(handle)); i >= 0 {
		count := models.ParseCount(sh.rows[i][models.ColTweetCount]).OrElse(0)
		sh.rows[i][models.ColTweetCount] = strconv.FormatInt(count+1, 10)
	} else {
		u := models.UserProfile{Handle: normalizeHandle(handle), TweetCount: 1}
		if name != "" {
			u.Name = models.Some(name)
		}
		row := map[string]string{}
		set(row, models.UserColumns, u.Row())
		sh.rows = append(sh.rows, row)
		created = true
	}

	if err := s.users.save(sh); err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "write users")
	}
	return created, nil
}

func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.posts.load()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypePersistence, err, "read posts")
	}
	if i := sh.find(postMatcher(postID)); i >= 0 {
		p := models.PostFromRow(sh.rows[i])
		return &p, nil
	}
	return nil, nil
}

func (s *Store) AppendPostIfNew(ctx context.Context, p models.Post) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.posts.load()
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "read posts")
	}
	if sh.find(postMatcher(p.PostID)) >= 0 {
		return false, nil
	}

	row := map[string]string{}
	set(row, models.PostColumns, p.Row())
	sh.rows = append(sh.rows, row)
	if err := s.posts.save(sh); err != nil {
		return false, errs.Wrap(errs.ErrorTypePersistence, err, "write posts")
	}
	return true, nil
}

func (s *Store) AmendPost(ctx context.Context, p models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.posts.load()
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "read posts")
	}
	i := sh.find(postMatcher(p.PostID))
	if i < 0 {
		return errs.New(errs.ErrorTypePersistence, fmt.Sprintf("post %s not stored", p.PostID))
	}
	sh.rows[i][models.ColContent] = p.Content
	sh.rows[i][models.ColLikes] = strconv.FormatInt(p.Likes, 10)

	if err := s.posts.save(sh); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "write posts")
	}
	return nil
}

func (s *Store) AppendChange(ctx context.Context, e models.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.changes.load()
	if err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "read changes")
	}
	row := map[string]string{}
	set(row, models.ChangeColumns, e.Row())
	sh.rows = append(sh.rows, row)

	if err := s.changes.save(sh); err != nil {
		return errs.Wrap(errs.ErrorTypePersistence, err, "write changes")
	}
	return nil
}

// ListChanges returns every logged change in file order
func (s *Store) ListChanges() ([]models.ChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.changes.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.ChangeEvent, 0, len(sh.rows))
	for _, row := range sh.rows {
		out = append(out, models.ChangeFromRow(row))
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
