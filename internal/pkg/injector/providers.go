package injector

import (
	"context"

	"github.com/lk2023060901/dealer-backend/internal/auth"
	"github.com/lk2023060901/dealer-backend/internal/conf"
	"github.com/lk2023060901/dealer-backend/internal/data"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
	"github.com/lk2023060901/dealer-backend/internal/pkg/redis"
	"github.com/lk2023060901/dealer-backend/internal/pkg/workerpool"
	"github.com/lk2023060901/dealer-backend/internal/server"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	storagedata "github.com/lk2023060901/dealer-backend/internal/storage/data"
	"github.com/lk2023060901/dealer-backend/internal/storage/service"
)

// Data layer

func provideData(ctx context.Context, config *conf.Config, log *logger.Logger) (*data.Data, func(), error) {
	return data.NewData(ctx, config, log)
}

func provideRedisClient(d *data.Data) *redis.Client {
	return d.Redis
}

func provideObjectStore(d *data.Data) biz.ObjectStore {
	return d.Store
}

func provideMetrics() *metrics.StorageMetrics {
	return metrics.NewStorageMetrics()
}

func provideWorkerPool(config *conf.Config, log *logger.Logger) (*workerpool.Pool, func(), error) {
	cfg := workerpool.DefaultConfig()
	cfg.Size = config.GC.Concurrency
	pool, err := workerpool.New(cfg, log.Named("gc-pool").Logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = pool.Release(config.Server.ShutdownTimeout)
	}
	return pool, cleanup, nil
}

// Repositories

func provideCatalogRepo(d *data.Data) biz.CatalogRepo {
	return storagedata.NewCatalogRepo(d.DB)
}

func provideSnapshotRepo(d *data.Data) biz.SnapshotRepo {
	return storagedata.NewSnapshotRepo(d.DB)
}

func provideCleanupLogRepo(d *data.Data) biz.CleanupLogRepo {
	return storagedata.NewCleanupLogRepo(d.DB)
}

func provideTransactor(d *data.Data) biz.Transactor {
	return storagedata.NewTransactor(d.DB)
}

func provideLocker(d *data.Data, log *logger.Logger) biz.Locker {
	return storagedata.NewRedisLocker(d.Redis, log)
}

// Use cases

func provideGarbageCollector(
	catalog biz.CatalogRepo,
	logs biz.CleanupLogRepo,
	tx biz.Transactor,
	store biz.ObjectStore,
	classifier *biz.InactivityClassifier,
	locker biz.Locker,
	pool *workerpool.Pool,
	config *conf.Config,
	m *metrics.StorageMetrics,
	log *logger.Logger,
	clock biz.Clock,
) *biz.GarbageCollector {
	cfg := biz.CollectorConfig{
		DeletesPerSecond: config.GC.DeletesPerSecond,
		Burst:            config.GC.Concurrency,
		LockTTL:          config.GC.LockTTL,
	}
	return biz.NewGarbageCollector(catalog, logs, tx, store, classifier, locker, pool, cfg, m, log, clock)
}

func provideAlertEvaluator(accountant *biz.UsageAccountant, config *conf.Config, m *metrics.StorageMetrics, log *logger.Logger, clock biz.Clock) *biz.AlertEvaluator {
	return biz.NewAlertEvaluator(accountant, config.Storage.CapacityBytes, m, log, clock)
}

func provideBucketAdmin(store biz.ObjectStore, config *conf.Config, log *logger.Logger) *biz.BucketAdmin {
	return biz.NewBucketAdmin(store, config.Storage.Bucket, config.Storage.PublicPrefixes, log)
}

func provideUploadUseCase(
	store biz.ObjectStore,
	catalog biz.CatalogRepo,
	compressor biz.Compressor,
	config *conf.Config,
	m *metrics.StorageMetrics,
	log *logger.Logger,
	clock biz.Clock,
) *biz.UploadUseCase {
	cfg := biz.UploadConfig{
		MaxWidth:        config.Compression.MaxWidth,
		MaxHeight:       config.Compression.MaxHeight,
		BudgetBytes:     config.Compression.BudgetBytes,
		LogoBudgetBytes: config.Compression.LogoBudgetBytes,
	}
	return biz.NewUploadUseCase(store, catalog, compressor, cfg, m, log, clock)
}

// HTTP

func provideJWTManager(config *conf.Config) *auth.JWTManager {
	return auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)
}

func provideHealthChecks(d *data.Data) map[string]server.HealthChecker {
	return map[string]server.HealthChecker{
		"database": d.DB,
		"redis":    server.HealthFunc(d.Redis.Ping),
	}
}

func provideUploadService(uc *biz.UploadUseCase, config *conf.Config, log *logger.Logger) *service.UploadService {
	return service.NewUploadService(uc, config.Server.MaxUploadBytes, log)
}
