// Package backend opens the gateway selected by DATA_BACKEND.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/config"
	"pennywise/internal/gateway"
	"pennywise/internal/offline"
)

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == PostgresBackend || bt == MemoryBackend
}

// Config selects and parameterises one backend.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// Memory snapshots go to Blobs when set, otherwise to files under
	// DataDirectory.
	DataDirectory  string
	SnapshotMaxAge time.Duration
	Blobs          offline.Blobs
}

// FromAppConfig picks the backend fields out of the process config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	c := Config{
		Type:           BackendType(cfg.DataBackend),
		SQLiteDBPath:   cfg.SQLiteDBPath,
		DatabaseURL:    cfg.DatabaseURL,
		DataDirectory:  cfg.SnapshotPath,
		SnapshotMaxAge: cfg.SnapshotMaxAge,
	}
	if !c.Type.IsValid() {
		return Config{}, fmt.Errorf("backend: unknown DATA_BACKEND %q", cfg.DataBackend)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("backend: sqlite needs a database path")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("backend: postgres needs a database URL")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("backend: unknown type %q", c.Type)
	}
	return nil
}

// Backend is an opened gateway plus whatever must be released with it.
type Backend struct {
	Gateway gateway.Gateway
	Type    BackendType
	closer  func() error
}

// Ping probes gateways with a remote dependency; the rest are always ready.
func (b *Backend) Ping(ctx context.Context) error {
	p, ok := b.Gateway.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}
