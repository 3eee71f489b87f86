package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// RotatingFileWriter appends to a log file and rotates it by size: when a write
// would take the file past its limit, path becomes path.1, path.1 becomes
// path.2 and so on, keeping at most maxFiles backups. It is safe for concurrent
// use.
type RotatingFileWriter struct {
	mu       sync.Mutex
	path     string
	limit    int64
	maxFiles int
	size     int64
	file     *os.File
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)

// NewRotatingFileWriter opens path for appending, creating it and its parent
// directory. maxSizeMB is at least 1. With maxFiles <= 0 no backups are kept
// and the file starts over on rotation.
func NewRotatingFileWriter(path string, maxSizeMB, maxFiles int) (*RotatingFileWriter, error) {
	return newRotatingFileWriter(path, int64(max(maxSizeMB, 1))<<20, maxFiles)
}

func newRotatingFileWriter(path string, limit int64, maxFiles int) (*RotatingFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	w := &RotatingFileWriter{path: path, limit: limit, maxFiles: max(maxFiles, 0)}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("logging: %w", err)
	}
	w.file, w.size = f, info.Size()
	return nil
}

// Write appends p, rotating first if p would overflow a non-empty file. A write
// is never split, so one larger than the limit gets a file to itself.
//
// If rotation fails, path is reopened and p appended to it anyway; the rotation
// error is returned with the count written, and the next overflowing write
// tries again.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	var rotateErr error
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			rotateErr = fmt.Errorf("logging: rotate: %w", err)
			if w.file == nil {
				if err := w.open(); err != nil {
					return 0, errors.Join(rotateErr, err)
				}
			}
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, errors.Join(rotateErr, err)
}

// Close closes the file. It is idempotent; later writes fail with os.ErrClosed.
// A writer whose file could not be reopened after a failed rotation is also
// closed.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// rotate requires w.mu.
func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	// shift path.(n-1) to path.n, oldest first; path itself is backup 0
	if err := removeIfExists(w.backup(w.maxFiles)); err != nil {
		return err
	}
	for n := w.maxFiles; n >= 1; n-- {
		err := os.Rename(w.backup(n-1), w.backup(n))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := removeIfExists(w.path); err != nil {
		return err
	}
	return w.open()
}

func (w *RotatingFileWriter) backup(n int) string {
	if n == 0 {
		return w.path
	}
	return w.path + "." + strconv.Itoa(n)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
