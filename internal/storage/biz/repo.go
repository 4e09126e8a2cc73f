package biz

import (
	"context"
	"time"
)

// ObjectStore is the gateway to the S3-compatible bucket.
//
// Read paths (ListAll, Stat) report ErrStoreUnavailable when the bucket is
// missing or unreachable. Write paths (Put, Delete) fail with ErrStoreWrite.
// Delete of an absent key succeeds.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// ListAll streams every object. The entry channel is closed when the
	// listing ends; the error channel then yields at most one error. A failed
	// listing must be restarted from the beginning. Cancel ctx to stop early.
	ListAll(ctx context.Context) (<-chan ObjectEntry, <-chan error)
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	EnsureBucket(ctx context.Context) error
	SetBucketPolicy(ctx context.Context, policy string) error
	GetLifecycle(ctx context.Context) ([]LifecycleRule, error)
	SetLifecycle(ctx context.Context, rules []LifecycleRule) error
}

// CatalogRepo reads tenants, vehicles and images from the relational catalog
// and soft-deletes images.
type CatalogRepo interface {
	ListTenants(ctx context.Context) ([]*Tenant, error)
	// ListVehicles includes soft-deleted vehicles.
	ListVehicles(ctx context.Context) ([]*Vehicle, error)
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)

	// ListLiveImagesByTenants returns non-deleted images on any vehicle of the given tenants.
	ListLiveImagesByTenants(ctx context.Context, tenantIDs []string) ([]*ImageRecord, error)
	// ListLiveImagesOnDeletedVehicles returns non-deleted images whose vehicle is soft-deleted.
	ListLiveImagesOnDeletedVehicles(ctx context.Context) ([]*ImageRecord, error)
	MarkImagesDeleted(ctx context.Context, ids []string, at time.Time) error
	CreateImage(ctx context.Context, img *ImageRecord) error
}

type SnapshotRepo interface {
	// Upsert inserts or replaces the row for snap.SnapshotDate.
	Upsert(ctx context.Context, snap *UsageSnapshot) error
	// GetByDate returns nil when no snapshot exists for day.
	GetByDate(ctx context.Context, day time.Time) (*UsageSnapshot, error)
	// ListAll returns every snapshot ordered by date ascending.
	ListAll(ctx context.Context) ([]*UsageSnapshot, error)
}

type CleanupLogRepo interface {
	Create(ctx context.Context, entry *CleanupLogEntry) error
	// List returns the newest entries first.
	List(ctx context.Context, limit int) ([]*CleanupLogEntry, error)
}

// Transactor runs fn in one catalog transaction. Repositories called with the
// ctx passed to fn join that transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker takes an advisory lock. Acquire fails with ErrCleanupInProgress when
// the key is held elsewhere.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Compressor re-encodes an image as JPEG within budget bytes, fitting it to maxWidth x maxHeight.
type Compressor interface {
	Compress(data []byte, budget, maxWidth, maxHeight int) ([]byte, error)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func NewSystemClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}
