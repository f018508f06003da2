package storage

import (
	"fmt"
	"sort"

	"tripplanner/internal/models"
)

// backend describes one storage provider: what it needs from the config and
// how to open it.
type backend struct {
	needsPath bool
	needsDSN  bool
	open      func(Config) (Storage, error)
}

// Factory opens the storage backend named by storage.type.
type Factory struct {
	backends map[string]backend
}

// NewFactory returns a factory that knows the json, memory, postgres and
// sqlite backends.
func NewFactory() *Factory {
	return &Factory{backends: map[string]backend{
		models.StorageTypeJSON: {
			needsPath: true,
			open:      func(c Config) (Storage, error) { return NewJSONStorage(c) },
		},
		models.StorageTypeMemory: {
			open: func(c Config) (Storage, error) { return NewMemoryStorage(c) },
		},
		models.StorageTypePostgres: {
			needsDSN: true,
			open:     func(c Config) (Storage, error) { return NewPostgresStorage(c) },
		},
		models.StorageTypeSQLite: {
			needsDSN: true,
			open:     func(c Config) (Storage, error) { return NewSQLiteStorage(c) },
		},
	}}
}

// Create validates cfg and opens the matching backend. Database backends
// create their schema on open.
func (f *Factory) Create(cfg models.StorageConfig) (Storage, error) {
	if err := f.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s, err := f.backends[cfg.Type].open(Config{
		Type:             cfg.Type,
		Path:             cfg.Path,
		ConnectionString: cfg.Database.DSN,
		CacheTTL:         cfg.CacheTTL,
		MaxOpenConns:     cfg.Database.MaxOpenConns,
		MaxIdleConns:     cfg.Database.MaxIdleConns,
		ConnMaxLifetime:  cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:  cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Type, err)
	}
	return s, nil
}

// GetSupportedProviders lists the backend names in sorted order.
func (f *Factory) GetSupportedProviders() []string {
	names := make([]string, 0, len(f.backends))
	for name := range f.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateConfig checks that cfg names a known backend and carries the
// settings that backend requires.
func (f *Factory) ValidateConfig(cfg models.StorageConfig) error {
	b, ok := f.backends[cfg.Type]
	if !ok {
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if b.needsPath && cfg.Path == "" {
		return fmt.Errorf("path is required for %s storage", cfg.Type)
	}
	if b.needsDSN && cfg.Database.DSN == "" {
		return fmt.Errorf("database DSN is required for %s storage", cfg.Type)
	}
	return nil
}
