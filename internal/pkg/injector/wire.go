//go:build wireinject
// +build wireinject

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/lk2023060901/dealer-backend/internal/conf"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/server"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	"github.com/lk2023060901/dealer-backend/internal/storage/processor"
	"github.com/lk2023060901/dealer-backend/internal/storage/service"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	dataProviderSet,
	repositoryProviderSet,
	useCaseProviderSet,
)

var dataProviderSet = wire.NewSet(
	provideData,
	provideObjectStore,
	provideMetrics,
	provideWorkerPool,
	biz.NewSystemClock,
)

var repositoryProviderSet = wire.NewSet(
	provideCatalogRepo,
	provideSnapshotRepo,
	provideCleanupLogRepo,
	provideTransactor,
	provideLocker,
)

var useCaseProviderSet = wire.NewSet(
	biz.NewUsageAccountant,
	biz.NewInactivityClassifier,
	provideGarbageCollector,
	provideAlertEvaluator,
	provideBucketAdmin,
)

var httpProviderSet = wire.NewSet(
	provideRedisClient,
	processor.NewImageCompressor,
	wire.Bind(new(biz.Compressor), new(*processor.ImageCompressor)),
	provideUploadUseCase,
	provideJWTManager,
	provideHealthChecks,
	service.NewStorageService,
	provideUploadService,
	server.NewHTTPServer,
)

// InitializeApp wires the HTTP server and everything behind it.
func InitializeApp(ctx context.Context, config *conf.Config, log *logger.Logger) (*App, func(), error) {
	wire.Build(ProviderSet, httpProviderSet, newApp)
	return nil, nil, nil
}

// InitializeJobs wires the use cases run by the one-shot job command.
func InitializeJobs(ctx context.Context, config *conf.Config, log *logger.Logger) (*Jobs, func(), error) {
	wire.Build(ProviderSet, wire.Struct(new(Jobs), "*"))
	return nil, nil, nil
}
