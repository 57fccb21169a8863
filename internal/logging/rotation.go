package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 3
)

// RotationConfig describes a size-rotated log file.
type RotationConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
}

// RotatingWriter appends log records to Path and shifts it to Path.1,
// Path.2 ... once the next write would exceed the size cap. Overlapping
// capture cycles share one writer, so writes are serialized.
type RotatingWriter struct {
	mu         sync.Mutex
	fs         afero.Fs
	path       string
	limit      int64
	maxBackups int
	file       afero.File
	size       int64
}

// NewRotatingWriter opens (or creates) the log file described by cfg.
func NewRotatingWriter(cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.Path == "" {
		return nil, errors.New("log file path is empty")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = defaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultMaxBackups
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	if err := cfg.Fs.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rw := &RotatingWriter{
		fs:         cfg.Fs,
		path:       cfg.Path,
		limit:      int64(cfg.MaxSizeMB) << 20,
		maxBackups: cfg.MaxBackups,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// Write implements io.Writer. A record is never split across files.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fs.ErrClosed
	}
	if rw.size > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Size returns the number of bytes in the active file.
func (rw *RotatingWriter) Size() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// Close closes the active file. Later writes fail with fs.ErrClosed.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

// TeeWriter duplicates every record to both writers.
func TeeWriter(primary, secondary io.Writer) io.Writer {
	return io.MultiWriter(primary, secondary)
}

func (rw *RotatingWriter) open() error {
	f, err := rw.fs.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

// rotate drops the oldest backup, shifts the rest up by one and starts a
// fresh active file. Missing backups are not an error.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return err
	}
	rw.file = nil

	oldest := rw.backup(rw.maxBackups)
	if err := rw.fs.Remove(oldest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := rw.maxBackups - 1; i >= 0; i-- {
		if err := rw.fs.Rename(rw.backup(i), rw.backup(i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return rw.open()
}

// backup returns the name of the i-th backup; 0 is the active file.
func (rw *RotatingWriter) backup(i int) string {
	if i == 0 {
		return rw.path
	}
	return fmt.Sprintf("%s.%d", rw.path, i)
}
