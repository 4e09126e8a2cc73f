package service

import (
	"time"

	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

type StatsResponse struct {
	Available          bool  `json:"available"`
	TotalBytes         int64 `json:"total_bytes"`
	ObjectCount        int64 `json:"object_count"`
	LargestObjectBytes int64 `json:"largest_object_bytes"`
	CapacityBytes      int64 `json:"capacity_bytes,omitempty"`
}

type SnapshotResponse struct {
	SnapshotDate string    `json:"snapshot_date"`
	TotalBytes   int64     `json:"total_bytes"`
	FileCount    int64     `json:"file_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GrowthPointResponse struct {
	Period     string `json:"period"`
	TotalBytes int64  `json:"total_bytes"`
	FileCount  int64  `json:"file_count"`
}

type ZombieTierResponse struct {
	Tier        int   `json:"tier"`
	TenantCount int   `json:"tenant_count"`
	FileCount   int   `json:"file_count"`
	TotalBytes  int64 `json:"total_bytes"`
}

type ZombieReportResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	LiveSizes   bool                 `json:"live_sizes"`
	Tiers       []ZombieTierResponse `json:"tiers"`
}

type CleanupRequest struct {
	Target string `json:"target" binding:"required"`
}

type CleanupResponse struct {
	Trigger      string `json:"trigger"`
	NothingToDo  bool   `json:"nothing_to_do"`
	DeletedCount int    `json:"deleted_count"`
	FailedCount  int    `json:"failed_count"`
	BytesFreed   int64  `json:"bytes_freed"`
	LogID        string `json:"log_id,omitempty"`
	Summary      string `json:"summary"`
}

type CleanupLogResponse struct {
	ID           string    `json:"id"`
	CleanedAt    time.Time `json:"cleaned_at"`
	FilesRemoved int       `json:"files_removed"`
	FilesFailed  int       `json:"files_failed"`
	BytesFreed   int64     `json:"bytes_freed"`
	TriggerType  string    `json:"trigger_type"`
	TriggeredBy  *string   `json:"triggered_by"`
	AffectedIDs  []string  `json:"affected_ids"`
}

type AlertResponse struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type ObjectInfoResponse struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

type LifecycleRuleDTO struct {
	ID             string `json:"id" binding:"required"`
	Prefix         string `json:"prefix"`
	ExpirationDays int    `json:"expiration_days" binding:"required,min=1"`
	Enabled        bool   `json:"enabled"`
}

type LifecycleRequest struct {
	Rules []LifecycleRuleDTO `json:"rules" binding:"dive"`
}

type ImageResponse struct {
	ID           string    `json:"id"`
	Key          string    `json:"key"`
	VehicleID    string    `json:"vehicle_id"`
	SizeBytes    int64     `json:"size_bytes"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type LogoResponse struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
}

func toSnapshotResponse(s *biz.UsageSnapshot) *SnapshotResponse {
	return &SnapshotResponse{
		SnapshotDate: s.SnapshotDate.Format(time.DateOnly),
		TotalBytes:   s.TotalBytes,
		FileCount:    s.FileCount,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toCleanupResponse(r *biz.CleanupResult) *CleanupResponse {
	return &CleanupResponse{
		Trigger:      string(r.Trigger),
		NothingToDo:  r.NothingToDo,
		DeletedCount: r.DeletedCount,
		FailedCount:  r.FailedCount,
		BytesFreed:   r.BytesFreed,
		LogID:        r.LogID,
		Summary:      r.Summary,
	}
}

func toCleanupLogResponse(e *biz.CleanupLogEntry) CleanupLogResponse {
	ids := e.AffectedIDs
	if ids == nil {
		ids = []string{}
	}
	return CleanupLogResponse{
		ID:           e.ID,
		CleanedAt:    e.CleanedAt,
		FilesRemoved: e.FilesRemoved,
		FilesFailed:  e.FilesFailed,
		BytesFreed:   e.BytesFreed,
		TriggerType:  string(e.TriggerType),
		TriggeredBy:  e.TriggeredBy,
		AffectedIDs:  ids,
	}
}

func toZombieReportResponse(r *biz.ZombieReport) *ZombieReportResponse {
	tiers := make([]ZombieTierResponse, len(r.Tiers))
	for i, t := range r.Tiers {
		tiers[i] = ZombieTierResponse{
			Tier:        int(t.Tier),
			TenantCount: t.TenantCount,
			FileCount:   t.FileCount,
			TotalBytes:  t.TotalBytes,
		}
	}
	return &ZombieReportResponse{GeneratedAt: r.GeneratedAt, LiveSizes: r.LiveSizes, Tiers: tiers}
}

func toImageResponse(img *biz.ImageRecord) *ImageResponse {
	return &ImageResponse{
		ID:           img.ID,
		Key:          img.Key,
		VehicleID:    img.VehicleID,
		SizeBytes:    img.SizeBytes,
		DisplayOrder: img.DisplayOrder,
		CreatedAt:    img.CreatedAt,
	}
}

func toLifecycleDTOs(rules []biz.LifecycleRule) []LifecycleRuleDTO {
	out := make([]LifecycleRuleDTO, len(rules))
	for i, r := range rules {
		out[i] = LifecycleRuleDTO(r)
	}
	return out
}
