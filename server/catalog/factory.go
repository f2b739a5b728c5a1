package catalog

import (
	"context"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/gear6io/metastore/server/metadata"
	"github.com/gear6io/metastore/server/storage/filesystem"
	"github.com/gear6io/metastore/server/storage/memory"
	"github.com/gear6io/metastore/server/storage/minio"
	"github.com/gear6io/metastore/server/warehouse"
	"github.com/rs/zerolog"
)

// NewWarehouse builds the warehouse and the filesystem serving its root
// from the warehouse configuration.
func NewWarehouse(ctx context.Context, cfg *config.WarehouseConfig, logger zerolog.Logger) (*warehouse.Warehouse, error) {
	switch cfg.FileSystem {
	case config.FS_LOCAL, "":
		return warehouse.New(cfg.Dir, logger, filesystem.NewFileStorage())

	case config.FS_MEMORY:
		return warehouse.New(cfg.Dir, logger, memory.NewMemoryStorage("file", "mem"))

	case config.FS_S3:
		fs, err := minio.NewS3FileSystem(minio.Config(cfg.S3))
		if err != nil {
			return nil, err
		}
		wh, err := warehouse.New(cfg.Dir, logger, fs)
		if err != nil {
			return nil, err
		}
		if cfg.S3.CreateBucket {
			if err := fs.EnsureBucket(ctx, wh.Root()); err != nil {
				return nil, err
			}
		}
		return wh, nil
	}
	return nil, errors.New(CatalogUnknownFileSystem, "unknown warehouse filesystem", nil).AddContext("filesystem", cfg.FileSystem)
}

// New opens the configured metadata store and warehouse and returns a
// handler owning both.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Handler, error) {
	backend, err := metadata.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	wh, err := NewWarehouse(ctx, &cfg.Warehouse, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	h, err := NewHandler(Options{Config: cfg, Backend: backend, Warehouse: wh, Logger: logger})
	if err != nil {
		backend.Close()
		return nil, err
	}
	h.backend = backend
	return h, nil
}
