package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	"github.com/lk2023060901/dealer-backend/internal/storage/models"
)

type SnapshotRepo struct {
	db *database.DB
}

func NewSnapshotRepo(db *database.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

var _ biz.SnapshotRepo = (*SnapshotRepo)(nil)

// Upsert relies on the unique snapshot_date index; the later write wins.
func (r *SnapshotRepo) Upsert(ctx context.Context, snap *biz.UsageSnapshot) error {
	po := &models.UsageSnapshot{
		SnapshotDate: snap.SnapshotDate.UTC().Format(time.DateOnly),
		TotalBytes:   snap.TotalBytes,
		FileCount:    snap.FileCount,
		CreatedAt:    snap.UpdatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}
	err := r.db.Conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_bytes", "file_count", "updated_at"}),
	}).Create(po).Error
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) GetByDate(ctx context.Context, day time.Time) (*biz.UsageSnapshot, error) {
	var po models.UsageSnapshot
	err := r.db.Conn(ctx).Where("snapshot_date = ?", day.UTC().Format(time.DateOnly)).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return toSnapshot(&po)
}

func (r *SnapshotRepo) ListAll(ctx context.Context) ([]*biz.UsageSnapshot, error) {
	var pos []models.UsageSnapshot
	if err := r.db.Conn(ctx).Order("snapshot_date ASC").Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	out := make([]*biz.UsageSnapshot, 0, len(pos))
	for i := range pos {
		snap, err := toSnapshot(&pos[i])
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func toSnapshot(po *models.UsageSnapshot) (*biz.UsageSnapshot, error) {
	day, err := time.Parse(time.DateOnly, po.SnapshotDate)
	if err != nil {
		return nil, fmt.Errorf("malformed snapshot date %q: %w", po.SnapshotDate, err)
	}
	return &biz.UsageSnapshot{
		SnapshotDate: day,
		TotalBytes:   po.TotalBytes,
		FileCount:    po.FileCount,
		UpdatedAt:    po.UpdatedAt,
	}, nil
}
