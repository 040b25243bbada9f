package storage

import "fmt"

// Config holds storage configuration
type Config struct {
	Type    string // only "local" is supported
	BaseDir string // root directory for the local backend
}

// New builds the backend selected by cfg.
func New(cfg Config) (ObjectStorage, error) {
	switch cfg.Type {
	case "", "local":
		s, err := NewLocalStorage(cfg.BaseDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}
