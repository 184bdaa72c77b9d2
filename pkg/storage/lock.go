package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/logger"
)

const lockFileName = ".xwatch.lock"

// ErrLocked is returned when another process holds the storage lock
var ErrLocked = errs.New(errs.ErrorTypePersistence, "storage directory is locked by another process")

// Lock is an exclusive, process-level lock on a storage directory
type Lock struct {
	file *os.File
}

// AcquireLock takes the lock for dir without blocking
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	// the PID is informational; the flock alone guards the directory
	if err := writeOwner(f); err != nil {
		logger.GetLogger().WithError(err).DebugWithFields("Failed to record lock owner", map[string]interface{}{
			"path": f.Name(),
		})
	}
	return &Lock{file: f}, nil
}

// writeOwner replaces the lock file's content with the current PID
func writeOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "%d\n", os.Getpid())
	return err
}

// Release drops the lock
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockFile(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}
