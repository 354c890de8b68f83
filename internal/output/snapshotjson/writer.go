package snapshotjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"evedash/internal/logger"
	"evedash/pkg/models"
)

// Config controls the snapshot file sink.
type Config struct {
	Path string
	// MaxBytes rotates the file to Path+".1" once the next snapshot would
	// push it past this size. Zero disables rotation.
	MaxBytes int64
}

// Writer appends snapshots to a JSON lines file. Every snapshot is synced
// to disk before WriteSnapshot returns.
type Writer struct {
	cfg  Config
	file *os.File
	size int64
	mu   sync.Mutex
}

// NewWriter opens (or creates) the snapshot file.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, errors.New("snapshot path is required")
	}
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	w := &Writer{cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	logger.Infof("Snapshot JSON writer initialized: %s", cfg.Path)
	return w, nil
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	w.file = nil
	if err := os.Rename(w.cfg.Path, w.cfg.Path+".1"); err != nil {
		return fmt.Errorf("failed to rotate output file: %w", err)
	}
	logger.Infof("Rotated snapshot file %s (%d bytes)", w.cfg.Path, w.size)
	return w.open()
}

// WriteSnapshot appends one snapshot line and syncs the file.
func (w *Writer) WriteSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot == nil {
		return errors.New("nil snapshot")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("snapshot writer is closed")
	}
	if w.cfg.MaxBytes > 0 && w.size > 0 && w.size+int64(len(line)) > w.cfg.MaxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	n, err := w.file.Write(line)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot file: %w", err)
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
