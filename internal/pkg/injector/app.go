package injector

import (
	"github.com/lk2023060901/dealer-backend/internal/conf"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/server"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// App is the long-running HTTP service
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	Bucket     *biz.BucketAdmin
}

func newApp(config *conf.Config, log *logger.Logger, httpServer *server.HTTPServer, bucket *biz.BucketAdmin) *App {
	return &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		Bucket:     bucket,
	}
}

// Jobs holds the use cases the scheduler triggers through cmd/storage-job.
type Jobs struct {
	Accountant *biz.UsageAccountant
	Collector  *biz.GarbageCollector
	Alerts     *biz.AlertEvaluator
	Bucket     *biz.BucketAdmin
}
