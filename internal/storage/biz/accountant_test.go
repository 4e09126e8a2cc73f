package biz

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
)

var testNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

func newTestAccountant(store *memStore, snaps *memSnapshots, now time.Time) *UsageAccountant {
	return NewUsageAccountant(store, snaps, nil, logger.NewNop(), fixedClock(now))
}

func TestCurrentStats(t *testing.T) {
	store := newMemStore()
	store.putSized("vehicles/a/1-0.jpg", 100)
	store.putSized("vehicles/a/2-1.jpg", 300)
	store.putSized("stores/t/logo.jpg", 50)

	m := metrics.NewStorageMetricsWithRegistry(prometheus.NewRegistry())
	uc := NewUsageAccountant(store, newMemSnapshots(), m, logger.NewNop(), fixedClock(testNow))

	stats, ok := uc.CurrentStats(context.Background()).Stats()
	require.True(t, ok)
	assert.Equal(t, StorageStats{TotalBytes: 450, ObjectCount: 3, LargestObjectBytes: 300}, stats)
	assert.Equal(t, float64(450), testutil.ToFloat64(m.TotalBytes))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Available))
}

func TestCurrentStatsEmptyIsNotUnavailable(t *testing.T) {
	uc := newTestAccountant(newMemStore(), newMemSnapshots(), testNow)

	res := uc.CurrentStats(context.Background())
	assert.True(t, res.IsAvailable())
	stats, _ := res.Stats()
	assert.Zero(t, stats)
}

func TestCurrentStatsUnavailable(t *testing.T) {
	store := newMemStore()
	store.putSized("k", 10)
	store.unavailable = true

	uc := newTestAccountant(store, newMemSnapshots(), testNow)
	res := uc.CurrentStats(context.Background())
	assert.False(t, res.IsAvailable())
}

func TestSnapshotTodayIsIdempotentPerDay(t *testing.T) {
	snaps := newMemSnapshots()
	ctx := context.Background()

	first := newTestAccountant(newMemStore(), snaps, testNow)
	_, err := first.SnapshotToday(ctx, 1000, 10)
	require.NoError(t, err)

	later := newTestAccountant(newMemStore(), snaps, testNow.Add(8*time.Hour))
	snap, err := later.SnapshotToday(ctx, 2000, 20)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), snap.SnapshotDate)

	rows, err := snaps.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2000), rows[0].TotalBytes)
	assert.Equal(t, int64(20), rows[0].FileCount)
}

func TestRunSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("records listing totals", func(t *testing.T) {
		store := newMemStore()
		store.putSized("a", 70)
		store.putSized("b", 30)
		snaps := newMemSnapshots()

		snap, err := newTestAccountant(store, snaps, testNow).RunSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), snap.TotalBytes)
		assert.Equal(t, int64(2), snap.FileCount)
	})

	t.Run("unavailable store writes nothing", func(t *testing.T) {
		store := newMemStore()
		store.unavailable = true
		snaps := newMemSnapshots()

		_, err := newTestAccountant(store, snaps, testNow).RunSnapshot(ctx)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Empty(t, snaps.rows)
	})
}

func TestGrowthSeries(t *testing.T) {
	snaps := newMemSnapshots()
	ctx := context.Background()
	for i, d := range []string{"2026-09-30", "2026-10-01", "2026-10-03", "2026-10-04", "2026-10-10", "2026-10-11"} {
		day, err := time.Parse(time.DateOnly, d)
		require.NoError(t, err)
		require.NoError(t, snaps.Upsert(ctx, &UsageSnapshot{SnapshotDate: day, TotalBytes: int64(i + 1), FileCount: int64(10 * (i + 1))}))
	}
	uc := newTestAccountant(newMemStore(), snaps, testNow)

	tests := []struct {
		name        string
		granularity Granularity
		limit       int
		want        []GrowthPoint
	}{
		{
			name:        "days keep the most recent",
			granularity: GranularityDay,
			limit:       2,
			want: []GrowthPoint{
				{Period: "2026-10-10", TotalBytes: 5, FileCount: 50},
				{Period: "2026-10-11", TotalBytes: 6, FileCount: 60},
			},
		},
		{
			name:        "weeks start on sunday",
			granularity: GranularityWeek,
			limit:       10,
			want: []GrowthPoint{
				{Period: "2026-09-27", TotalBytes: 6, FileCount: 60},
				{Period: "2026-10-04", TotalBytes: 9, FileCount: 90},
				{Period: "2026-10-11", TotalBytes: 6, FileCount: 60},
			},
		},
		{
			name:        "months",
			granularity: GranularityMonth,
			limit:       12,
			want: []GrowthPoint{
				{Period: "2026-09", TotalBytes: 1, FileCount: 10},
				{Period: "2026-10", TotalBytes: 20, FileCount: 200},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.GrowthSeries(ctx, tt.granularity, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrowthSeriesRejectsBadInput(t *testing.T) {
	uc := newTestAccountant(newMemStore(), newMemSnapshots(), testNow)
	ctx := context.Background()

	_, err := uc.GrowthSeries(ctx, "year", 5)
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = uc.GrowthSeries(ctx, GranularityDay, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestGrowthSeriesEmpty(t *testing.T) {
	uc := newTestAccountant(newMemStore(), newMemSnapshots(), testNow)
	got, err := uc.GrowthSeries(context.Background(), GranularityWeek, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}
