package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"xwatch/pkg/logger"
	"xwatch/pkg/storage"
)

const currentVersion = 1

// Cursor is the persisted position in the work list. LastIndex is the next
// item to process; it equals the list length once a cycle is exhausted.
// A bare {"last_index": n} document is a valid cursor.
type Cursor struct {
	LastIndex    int       `json:"last_index"`
	Cycle        int       `json:"cycle"`
	WorkListSize int       `json:"work_list_size,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Clamp restores 0 <= LastIndex <= n after the work list changed size.
// It reports whether the cursor moved.
func (c *Cursor) Clamp(n int) bool {
	before := c.LastIndex
	switch {
	case c.LastIndex < 0:
		c.LastIndex = 0
	case c.LastIndex > n:
		c.LastIndex = n
	}
	c.WorkListSize = n
	return before != c.LastIndex
}

// Exhausted reports whether every item of an n-item list has been processed
func (c *Cursor) Exhausted(n int) bool {
	return c.LastIndex >= n
}

// Manager loads and saves a Cursor
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager for the cursor file at path
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create progress directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{path: path, logger: log.WithField("component", "progress")}, nil
}

// Path returns the cursor file location
func (m *Manager) Path() string {
	return m.path
}

// Load reads the cursor; a missing file yields a fresh cursor at index 0
func (m *Manager) Load() (*Cursor, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Cursor{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("failed to open progress file: %w", err)
	}
	defer file.Close()

	var c Cursor
	if err := json.NewDecoder(file).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode progress file: %w", err)
	}
	if c.Version == 0 {
		c.Version = currentVersion
	}

	m.logger.InfoWithFields("Progress loaded", map[string]interface{}{
		"last_index": c.LastIndex,
		"cycle":      c.Cycle,
		"updated_at": c.UpdatedAt,
	})
	return &c, nil
}

// Save writes the cursor atomically
func (m *Manager) Save(c *Cursor) error {
	c.UpdatedAt = time.Now()

	err := storage.WriteFileAtomic(m.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	})
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	m.logger.DebugWithFields("Progress saved", map[string]interface{}{
		"last_index": c.LastIndex,
		"cycle":      c.Cycle,
	})
	return nil
}

// Advance marks item index as done and persists the cursor
func (m *Manager) Advance(c *Cursor, index int) error {
	c.LastIndex = index + 1
	return m.Save(c)
}

// Wrap starts the next cycle at index 0 and persists the cursor
func (m *Manager) Wrap(c *Cursor) error {
	c.LastIndex = 0
	c.Cycle++
	return m.Save(c)
}

// Reset removes the cursor file so the next run starts from the top
func (m *Manager) Reset() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}
	m.logger.Info("Progress reset")
	return nil
}

// Exists reports whether a cursor file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Backup copies the cursor file next to itself with a .backup suffix
func (m *Manager) Backup() error {
	if !m.Exists() {
		return nil
	}

	src, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("failed to open progress file for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy progress file: %w", err)
	}
	return nil
}
