// Package data opens the process-wide connections: the catalog database,
// Redis and the object store.
package data

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/conf"
	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/minio"
	"github.com/lk2023060901/dealer-backend/internal/pkg/redis"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	storagedata "github.com/lk2023060901/dealer-backend/internal/storage/data"
	"github.com/lk2023060901/dealer-backend/internal/storage/models"
)

type Data struct {
	DB    *database.DB
	Redis *redis.Client
	Store biz.ObjectStore
	// MinIO is nil when the s3 driver is configured.
	MinIO *minio.Client
}

func NewData(ctx context.Context, config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}
	if config.Database.AutoMigrate {
		if err := models.AutoMigrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate storage tables: %w", err)
		}
	}

	redisClient, err := redis.New(&config.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	d := &Data{DB: db, Redis: redisClient}
	if err := d.openStore(ctx, &config.Storage, log); err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if d.MinIO != nil {
			if err := d.MinIO.Close(); err != nil {
				log.Warn("failed to close minio client", zap.Error(err))
			}
		}
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
	return d, cleanup, nil
}

func (d *Data) openStore(ctx context.Context, cfg *conf.StorageConfig, log *logger.Logger) error {
	switch cfg.Driver {
	case conf.DriverS3:
		store, err := storagedata.NewS3Store(ctx, storagedata.S3Options{
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			Endpoint:     endpointURL(cfg.Endpoint, cfg.UseSSL),
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			SessionToken: cfg.SessionToken,
			UsePathStyle: cfg.PathStyle,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to init s3 store: %w", err)
		}
		d.Store = store
	default:
		client, err := minio.NewClient(cfg.MinIO(), log.Logger)
		if err != nil {
			return fmt.Errorf("failed to init minio: %w", err)
		}
		d.MinIO = client
		d.Store = storagedata.NewMinIOStore(client, cfg.Bucket, cfg.Region, log)
	}
	log.Info("object store ready", zap.String("driver", cfg.Driver), zap.String("bucket", cfg.Bucket))
	return nil
}

// endpointURL turns a host:port endpoint into the URL the AWS SDK expects.
func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
