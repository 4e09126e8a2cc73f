// Command storage-job runs one storage maintenance job and exits. It is meant
// to be invoked by an external scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/conf"
	"github.com/lk2023060901/dealer-backend/internal/pkg/injector"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
	job        = flag.String("job", "", "job to run: snapshot, cleanup or alerts")
	target     = flag.String("target", "", "cleanup target: 90, 180, 360 or obsolete")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storage-job:", err)
		os.Exit(1)
	}
}

func run() error {
	// validate flags before touching any backend
	var cleanupTarget biz.CleanupTarget
	switch *job {
	case "snapshot", "alerts":
	case "cleanup":
		t, err := biz.ParseCleanupTarget(*target)
		if err != nil {
			return err
		}
		cleanupTarget = t
	default:
		return fmt.Errorf("unknown job %q", *job)
	}

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	log, err := logger.New(&config.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("storage-job").With(zap.String("job", *job))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs, cleanup, err := injector.InitializeJobs(ctx, config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	switch *job {
	case "snapshot":
		snap, err := jobs.Accountant.RunSnapshot(ctx)
		if err != nil {
			return err
		}
		log.Info("snapshot recorded",
			zap.Time("date", snap.SnapshotDate),
			zap.Int64("total_bytes", snap.TotalBytes),
			zap.Int64("file_count", snap.FileCount))

	case "cleanup":
		result, err := jobs.Collector.RunCleanup(ctx, cleanupTarget, nil)
		if errors.Is(err, biz.ErrCleanupInProgress) {
			log.Warn("cleanup skipped, another run holds the lock", zap.String("target", cleanupTarget.String()))
			return nil
		}
		if err != nil {
			return err
		}
		log.Info(result.Summary,
			zap.Int("deleted", result.DeletedCount),
			zap.Int("failed", result.FailedCount),
			zap.Int64("bytes_freed", result.BytesFreed))

	case "alerts":
		alerts := jobs.Alerts.Evaluate(ctx)
		for _, a := range alerts {
			log.Warn(a.Message, zap.String("type", string(a.Type)), zap.String("severity", string(a.Severity)))
		}
		log.Info("alerts evaluated", zap.Int("count", len(alerts)))
	}
	return nil
}
