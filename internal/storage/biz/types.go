package biz

import (
	"fmt"
	"strconv"
	"time"
)

// Tier is an inactivity cutoff in days. TierNone means the tenant is active.
type Tier int

const (
	TierNone Tier = 0
	Tier90   Tier = 90
	Tier180  Tier = 180
	Tier360  Tier = 360
)

// Tiers lists the valid cutoffs, shortest first.
var Tiers = []Tier{Tier90, Tier180, Tier360}

// ParseTier accepts 90, 180 or 360.
func ParseTier(days int) (Tier, error) {
	for _, t := range Tiers {
		if int(t) == days {
			return t, nil
		}
	}
	return TierNone, fmt.Errorf("%w: %d", ErrInvalidTier, days)
}

// Cutoff returns now minus the tier's days.
func (t Tier) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(t) * 24 * time.Hour)
}

// TriggerType is recorded on every cleanup log entry.
type TriggerType string

const (
	TriggerZombie90  TriggerType = "zombie_90"
	TriggerZombie180 TriggerType = "zombie_180"
	TriggerZombie360 TriggerType = "zombie_360"
	TriggerObsolete  TriggerType = "obsolete"
)

// CleanupTarget selects a collection strategy: an inactivity tier, or the
// images left behind on soft-deleted vehicles.
type CleanupTarget struct {
	Tier     Tier
	Obsolete bool
}

// ObsoleteTarget selects images on soft-deleted vehicles.
var ObsoleteTarget = CleanupTarget{Obsolete: true}

// TierTarget selects images of tenants inactive beyond t.
func TierTarget(t Tier) CleanupTarget {
	return CleanupTarget{Tier: t}
}

// ParseCleanupTarget accepts "90", "180", "360" or "obsolete".
func ParseCleanupTarget(s string) (CleanupTarget, error) {
	if s == string(TriggerObsolete) {
		return ObsoleteTarget, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return CleanupTarget{}, fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	tier, err := ParseTier(days)
	if err != nil {
		return CleanupTarget{}, err
	}
	return TierTarget(tier), nil
}

// Validate rejects tier values outside 90/180/360.
func (t CleanupTarget) Validate() error {
	if t.Obsolete {
		return nil
	}
	_, err := ParseTier(int(t.Tier))
	return err
}

func (t CleanupTarget) TriggerType() TriggerType {
	if t.Obsolete {
		return TriggerObsolete
	}
	return TriggerType(fmt.Sprintf("zombie_%d", t.Tier))
}

func (t CleanupTarget) String() string {
	if t.Obsolete {
		return string(TriggerObsolete)
	}
	return strconv.Itoa(int(t.Tier))
}

// Granularity buckets growth series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}

// ObjectEntry is one item of a bucket listing.
type ObjectEntry struct {
	Key  string
	Size int64
}

// ObjectInfo is the metadata returned by Stat.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// LifecycleRule expires objects under Prefix after ExpirationDays.
type LifecycleRule struct {
	ID             string
	Prefix         string
	ExpirationDays int
	Enabled        bool
}

type Tenant struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

type Vehicle struct {
	ID        string
	TenantID  string
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ImageRecord is a catalog row for a stored vehicle photo.
// TenantID is resolved through the owning vehicle when listing.
type ImageRecord struct {
	ID           string
	Key          string
	VehicleID    string
	TenantID     string
	SizeBytes    int64
	DisplayOrder int
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// UsageSnapshot is the once-per-day usage data point. SnapshotDate is midnight UTC.
type UsageSnapshot struct {
	SnapshotDate time.Time
	TotalBytes   int64
	FileCount    int64
	UpdatedAt    time.Time
}

// CleanupLogEntry is the audit row written by every cleanup that had work to do.
type CleanupLogEntry struct {
	ID           string
	CleanedAt    time.Time
	FilesRemoved int
	FilesFailed  int
	BytesFreed   int64
	TriggerType  TriggerType
	TriggeredBy  *string
	AffectedIDs  []string
}

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

type AlertType string

const (
	AlertUsage  AlertType = "usage"
	AlertGrowth AlertType = "abnormal_growth"
)

// Alert is computed on demand and never stored.
type Alert struct {
	Type     AlertType
	Severity Severity
	Message  string
}

// GrowthPoint sums snapshots within one period. Period is "2006-01-02" for
// days and weeks (week start date) and "2006-01" for months.
type GrowthPoint struct {
	Period     string
	TotalBytes int64
	FileCount  int64
}

// ZombieTier summarises reclaimable images of tenants inactive beyond Tier.
type ZombieTier struct {
	Tier        Tier
	TenantCount int
	FileCount   int
	TotalBytes  int64
}

// ZombieReport covers every tier. LiveSizes is false when the object store
// could not be listed and every size came from the catalog.
type ZombieReport struct {
	GeneratedAt time.Time
	Tiers       []ZombieTier
	LiveSizes   bool
}

// CleanupResult describes one cleanup invocation. NothingToDo is set when the
// target set was empty; no log entry exists in that case.
type CleanupResult struct {
	Trigger      TriggerType
	NothingToDo  bool
	DeletedCount int
	FailedCount  int
	BytesFreed   int64
	LogID        string
	Summary      string
}
