// Package stores selects the draft store backend.
package stores

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pattern-studio/config"
	"pattern-studio/core"
	"pattern-studio/stores/aws"
	"pattern-studio/stores/filesystem"
	"pattern-studio/stores/memory"
	"pattern-studio/stores/postgres"
	"pattern-studio/stores/sqlite"
)

// GetStore builds the DraftStore named by cfg.StorageType.
func GetStore(ctx context.Context, cfg *config.Config) (core.DraftStore, error) {
	var (
		store core.DraftStore
		err   error
	)

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store, err = filesystem.NewStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store, err = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3BucketName
		store, err = aws.NewStore(ctx, cfg.S3BucketName)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set for postgres storage type")
		}
		store, err = postgres.NewStore(cfg.DatabaseURL)
	case "", "memory":
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StorageType, err)
	}

	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
