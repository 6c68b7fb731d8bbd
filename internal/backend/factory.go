package backend

import (
	"context"
	"fmt"

	"pennywise/internal/gateway/memory"
	"pennywise/internal/log"
	"pennywise/internal/offline"
	"pennywise/internal/storage"
)

const defaultDataDirectory = "data"

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend validates cfg and opens the backend it names.
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case SQLiteBackend:
		return f.openSQL(ctx, storage.DialectSQLite, cfg.SQLiteDBPath)
	case PostgresBackend:
		return f.openSQL(ctx, storage.DialectPostgres, cfg.DatabaseURL)
	default:
		return f.openMemory(cfg)
	}
}

func (f *Factory) openSQL(ctx context.Context, dialect storage.Dialect, dsn string) (*Backend, error) {
	repo, err := storage.Open(ctx, dialect, dsn, f.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", dialect, err)
	}
	typ := BackendType(dialect)
	f.logger.Info("SQL backend ready", log.FieldBackend, typ.String())
	return &Backend{Gateway: repo, Type: typ, closer: repo.Close}, nil
}

func (f *Factory) openMemory(cfg Config) (*Backend, error) {
	blobs := cfg.Blobs
	if blobs != nil {
		f.logger.Info("Memory backend ready, snapshots shared", log.FieldBackend, MemoryBackend.String())
	} else {
		dir := cfg.DataDirectory
		if dir == "" {
			dir = defaultDataDirectory
		}
		fb, err := offline.NewFileBlobs(dir)
		if err != nil {
			return nil, fmt.Errorf("snapshot directory: %w", err)
		}
		blobs = fb
		f.logger.Info("Memory backend ready", log.FieldBackend, MemoryBackend.String(), "data_directory", dir)
	}

	snapshots := offline.NewSnapshotStore(blobs, cfg.SnapshotMaxAge, f.logger)
	return &Backend{
		Gateway: memory.NewWithSnapshots(snapshots, f.logger),
		Type:    MemoryBackend,
	}, nil
}
