package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"penaltybox-backend/config"

	"github.com/google/uuid"
)

// Storage is the blob gateway used for proof uploads and thumbnails.
// Paths are relative (e.g. "proofs/uuid.png") so the backing store can
// be swapped without rewriting rows.
type Storage interface {
	// Save streams an upload into folder under a freshly generated name,
	// keeping the extension of originalName. Returns the relative path.
	Save(folder, originalName string, r io.Reader) (string, error)
	// SaveBytes writes an already-processed blob under the given name.
	SaveBytes(folder, name string, data []byte) (string, error)
	Open(relPath string) (io.ReadCloser, error)
	Delete(relPath string) error
	Exists(relPath string) bool
	// BasePath is the root directory, used for the static file mount.
	BasePath() string
}

func NewStorage(cfg *config.Config) (Storage, error) {
	switch cfg.StorageType {
	case "local":
		return NewLocalStorage(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

type LocalStorage struct {
	base string
}

func NewLocalStorage(base string) (*LocalStorage, error) {
	for _, folder := range []string{"proofs", "thumbnails"} {
		if err := os.MkdirAll(filepath.Join(base, folder), 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalStorage{base: base}, nil
}

func (s *LocalStorage) Save(folder, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext
	relPath := filepath.ToSlash(filepath.Join(folder, name))

	if err := os.MkdirAll(filepath.Join(s.base, folder), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.base, folder, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return relPath, nil
}

func (s *LocalStorage) SaveBytes(folder, name string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Join(s.base, folder), 0o755); err != nil {
		return "", err
	}
	relPath := filepath.ToSlash(filepath.Join(folder, name))
	if err := os.WriteFile(filepath.Join(s.base, folder, name), data, 0o644); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *LocalStorage) Open(relPath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.FromSlash(relPath)))
}

func (s *LocalStorage) Delete(relPath string) error {
	err := os.Remove(filepath.Join(s.base, filepath.FromSlash(relPath)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStorage) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(s.base, filepath.FromSlash(relPath)))
	return err == nil
}

func (s *LocalStorage) BasePath() string {
	return s.base
}
