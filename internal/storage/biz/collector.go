package biz

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
	"github.com/lk2023060901/dealer-backend/internal/pkg/workerpool"
)

const (
	// GCLockKey serializes every cleanup run. Tier target sets are nested and
	// obsolete images can belong to inactive tenants, so any two runs may overlap.
	GCLockKey          = "storage:gc"
	maxCleanupLogLimit = 500
)

// CollectorConfig tunes deletion fan-out.
type CollectorConfig struct {
	// DeletesPerSecond of 0 disables throttling.
	DeletesPerSecond float64
	Burst            int
	LockTTL          time.Duration
}

// GarbageCollector selects reclaimable images, deletes their objects, soft-deletes
// the catalog rows and appends an audit entry.
type GarbageCollector struct {
	catalog    CatalogRepo
	logs       CleanupLogRepo
	tx         Transactor
	store      ObjectStore
	classifier *InactivityClassifier
	locker     Locker
	pool       *workerpool.Pool
	limiter    *rate.Limiter
	lockTTL    time.Duration
	metrics    *metrics.StorageMetrics
	logger     *logger.Logger
	now        Clock
}

func NewGarbageCollector(
	catalog CatalogRepo,
	logs CleanupLogRepo,
	tx Transactor,
	store ObjectStore,
	classifier *InactivityClassifier,
	locker Locker,
	pool *workerpool.Pool,
	cfg CollectorConfig,
	m *metrics.StorageMetrics,
	log *logger.Logger,
	clock Clock,
) *GarbageCollector {
	var limiter *rate.Limiter
	if cfg.DeletesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.DeletesPerSecond), max(cfg.Burst, 1))
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}

	return &GarbageCollector{
		catalog:    catalog,
		logs:       logs,
		tx:         tx,
		store:      store,
		classifier: classifier,
		locker:     locker,
		pool:       pool,
		limiter:    limiter,
		lockTTL:    cfg.LockTTL,
		metrics:    m,
		logger:     log.Named("gc"),
		now:        clock,
	}
}

// RunCleanup collects the images selected by target. triggeredBy is nil for
// scheduled runs.
//
// Store deletes are best effort: failures are counted, but every target is
// still soft-deleted and BytesFreed sums the catalog sizes of all targets.
// An empty target set returns NothingToDo and writes no log entry.
func (gc *GarbageCollector) RunCleanup(ctx context.Context, target CleanupTarget, triggeredBy *string) (*CleanupResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	trigger := target.TriggerType()
	log := gc.logger.WithContext(ctx).With(zap.String("trigger", string(trigger)))

	release, err := gc.locker.Acquire(ctx, GCLockKey, gc.lockTTL)
	if err != nil {
		if errors.Is(err, ErrCleanupInProgress) {
			gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeLocked, 0, 0, 0, 0)
			log.Info("cleanup skipped, another run holds the lock")
		} else {
			gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeFailed, 0, 0, 0, 0)
		}
		return nil, err
	}
	defer release()

	// once the lock is held the run completes even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	targets, err := gc.selectTargets(ctx, target)
	if err != nil {
		gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeFailed, 0, 0, 0, 0)
		return nil, err
	}
	if len(targets) == 0 {
		gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeNothingToDo, 0, 0, 0, 0)
		log.Info("cleanup found nothing to do")
		return &CleanupResult{
			Trigger:     trigger,
			NothingToDo: true,
			Summary:     "nothing to clean",
		}, nil
	}

	log.Info("cleanup started", zap.Int("targets", len(targets)))

	deleted, failed := gc.deleteObjects(ctx, log, targets)

	ids := make([]string, len(targets))
	var bytesFreed int64
	for i, img := range targets {
		ids[i] = img.ID
		bytesFreed += img.SizeBytes
	}

	now := gc.now()
	entry := &CleanupLogEntry{
		ID:           uuid.NewString(),
		CleanedAt:    now,
		FilesRemoved: deleted,
		FilesFailed:  failed,
		BytesFreed:   bytesFreed,
		TriggerType:  trigger,
		TriggeredBy:  triggeredBy,
		AffectedIDs:  ids,
	}

	err = gc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := gc.catalog.MarkImagesDeleted(ctx, ids, now); err != nil {
			return fmt.Errorf("failed to mark images deleted: %w", err)
		}
		if err := gc.logs.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to write cleanup log: %w", err)
		}
		return nil
	})
	if err != nil {
		gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeFailed, 0, 0, 0, 0)
		log.Error("cleanup catalog update failed", zap.Error(err), zap.Int("store_deleted", deleted))
		return nil, err
	}

	elapsed := time.Since(start)
	gc.metrics.ObserveGCRun(string(trigger), metrics.OutcomeCompleted, deleted, failed, bytesFreed, elapsed)

	result := &CleanupResult{
		Trigger:      trigger,
		DeletedCount: deleted,
		FailedCount:  failed,
		BytesFreed:   bytesFreed,
		LogID:        entry.ID,
		Summary: fmt.Sprintf("removed %d of %d objects (%d failed), freed %d bytes",
			deleted, len(targets), failed, bytesFreed),
	}
	log.Info("cleanup finished",
		zap.Int("deleted", deleted),
		zap.Int("failed", failed),
		zap.Int64("bytes_freed", bytesFreed),
		zap.Duration("elapsed", elapsed),
		zap.String("log_id", entry.ID))
	return result, nil
}

func (gc *GarbageCollector) selectTargets(ctx context.Context, target CleanupTarget) ([]*ImageRecord, error) {
	if target.Obsolete {
		images, err := gc.catalog.ListLiveImagesOnDeletedVehicles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list images on deleted vehicles: %w", err)
		}
		return images, nil
	}

	tenants, err := gc.classifier.InactiveTenants(ctx, target.Tier)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, nil
	}
	images, err := gc.catalog.ListLiveImagesByTenants(ctx, tenants)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of inactive tenants: %w", err)
	}
	return images, nil
}

// deleteObjects issues one delete per target on the worker pool. No failure
// stops the others.
func (gc *GarbageCollector) deleteObjects(ctx context.Context, log *logger.Logger, targets []*ImageRecord) (deleted, failed int) {
	var ok, bad atomic.Int64
	group := gc.pool.NewGroup()

	for _, img := range targets {
		if gc.limiter != nil {
			if err := gc.limiter.Wait(ctx); err != nil {
				bad.Add(1)
				continue
			}
		}

		err := group.Go(func() {
			if err := gc.store.Delete(ctx, img.Key); err != nil {
				bad.Add(1)
				log.Warn("object delete failed", zap.String("key", img.Key), zap.String("image_id", img.ID), zap.Error(err))
				return
			}
			ok.Add(1)
		})
		if err != nil {
			bad.Add(1)
			log.Warn("could not schedule object delete", zap.String("key", img.Key), zap.Error(err))
		}
	}
	group.Wait()

	return int(ok.Load()), int(bad.Load())
}

// ListCleanupLogs returns up to limit recent entries, newest first.
func (gc *GarbageCollector) ListCleanupLogs(ctx context.Context, limit int) ([]*CleanupLogEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return gc.logs.List(ctx, min(limit, maxCleanupLogLimit))
}
