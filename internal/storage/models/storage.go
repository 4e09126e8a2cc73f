package models

import "time"

// UsageSnapshot stores one row per UTC day. SnapshotDate is "2006-01-02".
type UsageSnapshot struct {
	ID           uint      `gorm:"primaryKey"`
	SnapshotDate string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_usage_snapshots_date"`
	TotalBytes   int64     `gorm:"not null"`
	FileCount    int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UsageSnapshot) TableName() string {
	return "usage_snapshots"
}

// CleanupLog is append-only. AffectedIDs is a JSON array of image ids.
type CleanupLog struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	CleanedAt    time.Time `gorm:"not null;index:idx_cleanup_logs_cleaned_at,sort:desc"`
	FilesRemoved int       `gorm:"not null"`
	FilesFailed  int       `gorm:"not null;default:0"`
	BytesFreed   int64     `gorm:"not null"`
	TriggerType  string    `gorm:"type:varchar(32);not null;index"`
	TriggeredBy  *string   `gorm:"type:varchar(36)"`
	AffectedIDs  string    `gorm:"column:affected_ids;type:text;not null"`
}

func (CleanupLog) TableName() string {
	return "cleanup_logs"
}
