package biz

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"
)

type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	failDeletes map[string]bool
	failPut     bool
	unavailable bool
	listCalls   int
	deleted     []string
	lifecycle   []LifecycleRule
	policy      string
	ensured     bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, failDeletes: map[string]bool{}}
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return ErrStoreWrite
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDeletes[key] {
		return ErrStoreWrite
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStore) ListAll(ctx context.Context) (<-chan ObjectEntry, <-chan error) {
	s.mu.Lock()
	s.listCalls++
	entries := make([]ObjectEntry, 0, len(s.objects))
	for k, v := range s.objects {
		entries = append(entries, ObjectEntry{Key: k, Size: int64(len(v))})
	}
	unavailable := s.unavailable
	s.mu.Unlock()

	out := make(chan ObjectEntry)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(out)
		if unavailable {
			errc <- ErrStoreUnavailable
			return
		}
		for _, e := range entries {
			select {
			case out <- e:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

func (s *memStore) Stat(_ context.Context, key string) (*ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, ErrStoreUnavailable
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &ObjectInfo{Key: key, Size: int64(len(data)), ContentType: "image/jpeg"}, nil
}

func (s *memStore) EnsureBucket(context.Context) error {
	s.ensured = true
	return nil
}

func (s *memStore) SetBucketPolicy(_ context.Context, policy string) error {
	s.policy = policy
	return nil
}

func (s *memStore) GetLifecycle(context.Context) ([]LifecycleRule, error) {
	return s.lifecycle, nil
}

func (s *memStore) SetLifecycle(_ context.Context, rules []LifecycleRule) error {
	s.lifecycle = rules
	return nil
}

// putSized stores size zero bytes under key.
func (s *memStore) putSized(key string, size int) {
	s.objects[key] = make([]byte, size)
}

type memCatalog struct {
	mu        sync.Mutex
	tenants   map[string]*Tenant
	vehicles  map[string]*Vehicle
	images    map[string]*ImageRecord
	failMark  bool
	failWrite bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		tenants:  map[string]*Tenant{},
		vehicles: map[string]*Vehicle{},
		images:   map[string]*ImageRecord{},
	}
}

func (c *memCatalog) addTenant(id string, updated time.Time) {
	c.tenants[id] = &Tenant{ID: id, UpdatedAt: updated}
}

func (c *memCatalog) addVehicle(id, tenantID string, updated time.Time, deleted *time.Time) {
	c.vehicles[id] = &Vehicle{ID: id, TenantID: tenantID, UpdatedAt: updated, DeletedAt: deleted}
}

func (c *memCatalog) addImage(id, vehicleID, key string, size int64) {
	c.images[id] = &ImageRecord{ID: id, VehicleID: vehicleID, Key: key, SizeBytes: size}
}

func (c *memCatalog) ListTenants(context.Context) ([]*Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Tenant, 0, len(c.tenants))
	for _, t := range c.tenants {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (c *memCatalog) ListVehicles(context.Context) ([]*Vehicle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Vehicle, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (c *memCatalog) GetTenant(_ context.Context, id string) (*Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (c *memCatalog) GetVehicle(_ context.Context, id string) (*Vehicle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (c *memCatalog) liveImages(keep func(img *ImageRecord, v *Vehicle) bool) []*ImageRecord {
	var out []*ImageRecord
	for _, img := range c.images {
		v, ok := c.vehicles[img.VehicleID]
		if img.DeletedAt != nil || !ok || !keep(img, v) {
			continue
		}
		cp := *img
		cp.TenantID = v.TenantID
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *memCatalog) ListLiveImagesByTenants(_ context.Context, tenantIDs []string) ([]*ImageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveImages(func(_ *ImageRecord, v *Vehicle) bool {
		return slices.Contains(tenantIDs, v.TenantID)
	}), nil
}

func (c *memCatalog) ListLiveImagesOnDeletedVehicles(context.Context) ([]*ImageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveImages(func(_ *ImageRecord, v *Vehicle) bool {
		return v.DeletedAt != nil
	}), nil
}

func (c *memCatalog) MarkImagesDeleted(_ context.Context, ids []string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failMark {
		return errors.New("catalog down")
	}
	for _, id := range ids {
		if img, ok := c.images[id]; ok {
			t := at
			img.DeletedAt = &t
		}
	}
	return nil
}

func (c *memCatalog) CreateImage(_ context.Context, img *ImageRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrite {
		return errors.New("catalog down")
	}
	cp := *img
	c.images[img.ID] = &cp
	return nil
}

type memSnapshots struct {
	mu   sync.Mutex
	rows map[string]*UsageSnapshot
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{rows: map[string]*UsageSnapshot{}}
}

func (r *memSnapshots) Upsert(_ context.Context, snap *UsageSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *snap
	r.rows[snap.SnapshotDate.Format(time.DateOnly)] = &cp
	return nil
}

func (r *memSnapshots) GetByDate(_ context.Context, day time.Time) (*UsageSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[day.Format(time.DateOnly)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSnapshots) ListAll(context.Context) ([]*UsageSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*UsageSnapshot, 0, len(r.rows))
	for _, s := range r.rows {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

type memLogs struct {
	mu      sync.Mutex
	entries []*CleanupLogEntry
}

func (r *memLogs) Create(_ context.Context, e *CleanupLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memLogs) List(_ context.Context, limit int) ([]*CleanupLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*CleanupLogEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

type inlineTx struct{}

func (inlineTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrCleanupInProgress
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
