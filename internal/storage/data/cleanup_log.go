package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	"github.com/lk2023060901/dealer-backend/internal/storage/models"
)

type CleanupLogRepo struct {
	db *database.DB
}

func NewCleanupLogRepo(db *database.DB) *CleanupLogRepo {
	return &CleanupLogRepo{db: db}
}

var _ biz.CleanupLogRepo = (*CleanupLogRepo)(nil)

func (r *CleanupLogRepo) Create(ctx context.Context, entry *biz.CleanupLogEntry) error {
	ids := entry.AffectedIDs
	if ids == nil {
		ids = []string{}
	}
	affected, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal affected ids: %w", err)
	}

	po := &models.CleanupLog{
		ID:           entry.ID,
		CleanedAt:    entry.CleanedAt,
		FilesRemoved: entry.FilesRemoved,
		FilesFailed:  entry.FilesFailed,
		BytesFreed:   entry.BytesFreed,
		TriggerType:  string(entry.TriggerType),
		TriggeredBy:  entry.TriggeredBy,
		AffectedIDs:  string(affected),
	}
	if err := r.db.Conn(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create cleanup log: %w", err)
	}
	return nil
}

func (r *CleanupLogRepo) List(ctx context.Context, limit int) ([]*biz.CleanupLogEntry, error) {
	var pos []models.CleanupLog
	err := r.db.Conn(ctx).Order("cleaned_at DESC").Order("id DESC").Limit(limit).Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup logs: %w", err)
	}

	out := make([]*biz.CleanupLogEntry, 0, len(pos))
	for i := range pos {
		po := &pos[i]
		var ids []string
		if err := json.Unmarshal([]byte(po.AffectedIDs), &ids); err != nil {
			return nil, fmt.Errorf("malformed affected ids on cleanup log %s: %w", po.ID, err)
		}
		out = append(out, &biz.CleanupLogEntry{
			ID:           po.ID,
			CleanedAt:    po.CleanedAt,
			FilesRemoved: po.FilesRemoved,
			FilesFailed:  po.FilesFailed,
			BytesFreed:   po.BytesFreed,
			TriggerType:  biz.TriggerType(po.TriggerType),
			TriggeredBy:  po.TriggeredBy,
			AffectedIDs:  ids,
		})
	}
	return out, nil
}
