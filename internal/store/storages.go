package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/models"
)

// Storages bundles the document store chosen by configuration.
type Storages struct {
	Documents DocumentStore

	// Memory is set when the in-memory store is in use; its Run method is
	// the writer goroutine and must be started by the caller.
	Memory *MemoryStore

	// DB is set when PostgreSQL is in use.
	DB *DB
}

// NewStorages connects to PostgreSQL and applies migrations when a DSN is
// configured. Otherwise it opens the in-memory store, restoring its snapshot
// and seeding empty collections from cfg.Files.SeedDir.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	if cfg.DB.DSN != "" {
		db, err := NewConnectPostgres(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err = db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Storages{Documents: NewPostgresStore(db, log), DB: db}, nil
	}

	var opts []MemoryOption
	if cfg.Files.SnapshotFile != "" {
		opts = append(opts, WithSnapshot(cfg.Files.SnapshotFile))
	}
	mem, err := NewMemoryStore(log, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Files.SeedDir != "" {
		if err = SeedFromDir(mem, cfg.Files.SeedDir, log); err != nil {
			return nil, err
		}
	}
	return &Storages{Documents: mem, Memory: mem}, nil
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// SeedFromDir loads <collection>.json arrays from dir into every empty
// collection of mem. Missing files are skipped.
func SeedFromDir(mem *MemoryStore, dir string, log *logger.Logger) error {
	for _, collection := range models.Collections {
		if mem.Count(collection) > 0 {
			continue
		}

		path := filepath.Join(dir, collection+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read seed file: %w", err)
		}

		var docs []models.Document
		if err = json.Unmarshal(data, &docs); err != nil {
			return fmt.Errorf("decode seed file %s: %w", path, err)
		}
		if err = mem.Seed(collection, docs); err != nil {
			return fmt.Errorf("seed %s: %w", collection, err)
		}
		log.Info().Str("collection", collection).Int("documents", len(docs)).Msg("seeded collection")
	}
	return nil
}
