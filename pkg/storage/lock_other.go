//go:build !unix

package storage

import "os"

// Without flock the lock only records the owning pid.
func lockFile(f *os.File) error { return nil }

func unlockFile(f *os.File) {}
