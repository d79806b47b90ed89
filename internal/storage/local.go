package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soportek/helpdesk/internal/config"
)

// FileStore persists raw attachment bytes under a stable key. The
// service layer owns validation; the store only moves bytes.
type FileStore interface {
	// Save writes the bytes and returns the storage key.
	Save(fileName string, data []byte) (string, error)
	// Delete removes the backing file. Deleting a key whose file is
	// already gone is not an error.
	Delete(key string) error
	Path(key string) string
}

type localStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates a disk-backed store rooted at the configured
// upload directory.
func NewLocalStore(cfg config.StorageConfig) (FileStore, error) {
	root := cfg.UploadDir
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStore{root: root, maxBytes: cfg.MaxUploadBytes}, nil
}

func (s *localStore) Save(fileName string, data []byte) (string, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("file %q exceeds upload limit", fileName)
	}

	// Keyed by year/month like the usual upload layout, with a random
	// name so user-supplied names never touch the filesystem.
	now := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(fileName))
	key := filepath.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		uuid.NewString()+ext,
	)

	path := filepath.Join(s.root, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}

func (s *localStore) Delete(key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localStore) Path(key string) string {
	return filepath.Join(s.root, key)
}
