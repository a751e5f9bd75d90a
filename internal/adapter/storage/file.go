package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
)

var _ port.CartSlot = (*FileSlot)(nil)

// A FileSlot keeps every key in its own file under dir.
// Writes go to a temp file first and replace the old one with a rename.
type FileSlot struct {
	mu  sync.Mutex
	dir string
}

func NewFileSlot(dir string) (*FileSlot, error) {
	const op = "NewFileSlot"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("cart file storage is ready", "op", op, "dir", dir)
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) Get(ctx context.Context, key string) (string, error) {
	const op = "FileSlot.Get"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(b), nil
}

func (s *FileSlot) Set(ctx context.Context, key, value string) error {
	const op = "FileSlot.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// path encodes the key, so any key maps to a single plain file name.
func (s *FileSlot) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}
