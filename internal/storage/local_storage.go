package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RaymondSalim/hms-sub002/internal/logger"
)

// ErrObjectNotFound is returned by GetObject for unknown references.
var ErrObjectNotFound = errors.New("object not found")

// LocalStorage keeps objects on the local filesystem under baseDir.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates baseDir if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

func (s *LocalStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	logger.ExternalServiceCall("local-storage", "PutObject", "key", key, "size", len(data), "contentType", contentType)

	fullPath, err := s.resolve(key)
	if err != nil {
		logger.ExternalServiceResult("local-storage", "PutObject", err, "key", key)
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		err = fmt.Errorf("failed to create directory: %w", err)
		logger.ExternalServiceResult("local-storage", "PutObject", err, "key", key)
		return "", err
	}

	// Write to a temp file first so readers never see a partial object.
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		err = fmt.Errorf("failed to write file: %w", err)
		logger.ExternalServiceResult("local-storage", "PutObject", err, "key", key)
		return "", err
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		err = fmt.Errorf("failed to move file into place: %w", err)
		logger.ExternalServiceResult("local-storage", "PutObject", err, "key", key)
		return "", err
	}

	logger.ExternalServiceResult("local-storage", "PutObject", nil, "key", key)
	return key, nil
}

func (s *LocalStorage) GetObject(ctx context.Context, ref string) ([]byte, error) {
	logger.ExternalServiceCall("local-storage", "GetObject", "ref", ref)

	fullPath, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = ErrObjectNotFound
		} else {
			err = fmt.Errorf("failed to read file: %w", err)
		}
		logger.ExternalServiceResult("local-storage", "GetObject", err, "ref", ref)
		return nil, err
	}

	logger.ExternalServiceResult("local-storage", "GetObject", nil, "ref", ref, "size", len(data))
	return data, nil
}

func (s *LocalStorage) DeleteObject(ctx context.Context, ref string) error {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a key to a path inside baseDir, rejecting keys that escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
