package biz

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
)

// StorageStats is the result of one full listing.
type StorageStats struct {
	TotalBytes         int64
	ObjectCount        int64
	LargestObjectBytes int64
}

// StatsResult is either Available with stats or Unavailable. An empty bucket
// is Available with zero stats.
type StatsResult struct {
	stats     StorageStats
	available bool
}

func Available(s StorageStats) StatsResult { return StatsResult{stats: s, available: true} }

func Unavailable() StatsResult { return StatsResult{} }

// Stats returns the stats and whether the store answered.
func (r StatsResult) Stats() (StorageStats, bool) { return r.stats, r.available }

func (r StatsResult) IsAvailable() bool { return r.available }

// UsageAccountant computes aggregate usage and keeps the daily snapshot series.
type UsageAccountant struct {
	store     ObjectStore
	snapshots SnapshotRepo
	metrics   *metrics.StorageMetrics
	logger    *logger.Logger
	now       Clock

	listing singleflight.Group
}

func NewUsageAccountant(store ObjectStore, snapshots SnapshotRepo, m *metrics.StorageMetrics, log *logger.Logger, clock Clock) *UsageAccountant {
	return &UsageAccountant{
		store:     store,
		snapshots: snapshots,
		metrics:   m,
		logger:    log.Named("usage"),
		now:       clock,
	}
}

// CurrentStats reduces a full listing. Concurrent callers share one listing.
// It never fails: a store that cannot be listed yields Unavailable.
func (uc *UsageAccountant) CurrentStats(ctx context.Context) StatsResult {
	v, _, _ := uc.listing.Do("stats", func() (any, error) {
		return uc.collectStats(context.WithoutCancel(ctx)), nil
	})
	return v.(StatsResult)
}

func (uc *UsageAccountant) collectStats(ctx context.Context) StatsResult {
	var stats StorageStats
	err := forEachObject(ctx, uc.store, func(obj ObjectEntry) {
		stats.TotalBytes += obj.Size
		stats.ObjectCount++
		stats.LargestObjectBytes = max(stats.LargestObjectBytes, obj.Size)
	})
	if err != nil {
		uc.logger.WithContext(ctx).Warn("object store listing failed, reporting unavailable", zap.Error(err))
		uc.metrics.ObserveUnavailable()
		return Unavailable()
	}

	uc.metrics.ObserveUsage(stats.TotalBytes, stats.ObjectCount, stats.LargestObjectBytes)
	return Available(stats)
}

// SnapshotToday upserts the row for the current UTC day. A second call on the
// same day replaces the first.
func (uc *UsageAccountant) SnapshotToday(ctx context.Context, totalBytes, fileCount int64) (*UsageSnapshot, error) {
	now := uc.now()
	snap := &UsageSnapshot{
		SnapshotDate: utcDay(now),
		TotalBytes:   totalBytes,
		FileCount:    fileCount,
		UpdatedAt:    now,
	}
	if err := uc.snapshots.Upsert(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to upsert usage snapshot: %w", err)
	}
	return snap, nil
}

// RunSnapshot lists the store and records today's snapshot. Nothing is
// written when the store is unavailable.
func (uc *UsageAccountant) RunSnapshot(ctx context.Context) (*UsageSnapshot, error) {
	stats, ok := uc.CurrentStats(ctx).Stats()
	if !ok {
		return nil, ErrStoreUnavailable
	}

	snap, err := uc.SnapshotToday(ctx, stats.TotalBytes, stats.ObjectCount)
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("usage snapshot recorded",
		zap.String("date", snap.SnapshotDate.Format(time.DateOnly)),
		zap.Int64("total_bytes", snap.TotalBytes),
		zap.Int64("file_count", snap.FileCount))
	return snap, nil
}

// SnapshotOn returns the snapshot for the UTC day containing t, or nil.
func (uc *UsageAccountant) SnapshotOn(ctx context.Context, t time.Time) (*UsageSnapshot, error) {
	return uc.snapshots.GetByDate(ctx, utcDay(t))
}

// GrowthSeries sums snapshots per period and returns the most recent limit
// periods in ascending order. Weeks start on Sunday.
func (uc *UsageAccountant) GrowthSeries(ctx context.Context, granularity Granularity, limit int) ([]GrowthPoint, error) {
	if _, err := ParseGranularity(string(granularity)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	snaps, err := uc.snapshots.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage snapshots: %w", err)
	}
	return bucketSnapshots(snaps, granularity, limit), nil
}

func bucketSnapshots(snaps []*UsageSnapshot, granularity Granularity, limit int) []GrowthPoint {
	buckets := make(map[string]*GrowthPoint)
	for _, s := range snaps {
		key := periodKey(s.SnapshotDate, granularity)
		p, ok := buckets[key]
		if !ok {
			p = &GrowthPoint{Period: key}
			buckets[key] = p
		}
		p.TotalBytes += s.TotalBytes
		p.FileCount += s.FileCount
	}

	points := make([]GrowthPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	// period keys are zero-padded dates, so lexical order is chronological
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })

	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points
}

func periodKey(day time.Time, granularity Granularity) string {
	day = utcDay(day)
	switch granularity {
	case GranularityWeek:
		return day.AddDate(0, 0, -int(day.Weekday())).Format(time.DateOnly)
	case GranularityMonth:
		return day.Format("2006-01")
	default:
		return day.Format(time.DateOnly)
	}
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// forEachObject drains a listing, calling fn for each entry.
func forEachObject(ctx context.Context, store ObjectStore, fn func(ObjectEntry)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries, errs := store.ListAll(ctx)
	for obj := range entries {
		fn(obj)
	}
	if err := <-errs; err != nil {
		return err
	}
	return nil
}
