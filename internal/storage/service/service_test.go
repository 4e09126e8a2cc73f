package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/lk2023060901/dealer-backend/internal/auth/middleware"
	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
	"github.com/lk2023060901/dealer-backend/internal/pkg/workerpool"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	"github.com/lk2023060901/dealer-backend/internal/storage/data"
	"github.com/lk2023060901/dealer-backend/internal/storage/models"
	"github.com/lk2023060901/dealer-backend/internal/storage/processor"
)

var testNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// fakeStore is an in-memory bucket.
type fakeStore struct {
	mu          sync.Mutex
	objects     map[string]int64
	lifecycle   []biz.LifecycleRule
	unavailable bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]int64{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = int64(len(data))
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) ListAll(context.Context) (<-chan biz.ObjectEntry, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(chan biz.ObjectEntry, len(s.objects))
	errCh := make(chan error, 1)
	if s.unavailable {
		errCh <- biz.ErrStoreUnavailable
	} else {
		for k, size := range s.objects {
			out <- biz.ObjectEntry{Key: k, Size: size}
		}
	}
	close(out)
	close(errCh)
	return out, errCh
}

func (s *fakeStore) Stat(_ context.Context, key string) (*biz.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.objects[key]
	if !ok {
		return nil, biz.ErrObjectNotFound
	}
	return &biz.ObjectInfo{Key: key, Size: size, ContentType: "image/jpeg", LastModified: testNow}, nil
}

func (s *fakeStore) EnsureBucket(context.Context) error           { return nil }
func (s *fakeStore) SetBucketPolicy(context.Context, string) error { return nil }

func (s *fakeStore) GetLifecycle(context.Context) ([]biz.LifecycleRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]biz.LifecycleRule{}, s.lifecycle...), nil
}

func (s *fakeStore) SetLifecycle(_ context.Context, rules []biz.LifecycleRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifecycle = rules
	return nil
}

// fakeLocker refuses keys listed in held.
type fakeLocker struct {
	held map[string]bool
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held[key] {
		return nil, biz.ErrCleanupInProgress
	}
	return func() {}, nil
}

type apiFixture struct {
	router *gin.Engine
	db     *database.DB
	store  *fakeStore
	locker *fakeLocker
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	cfg := database.DefaultConfig()
	cfg.AutoMigrate = true
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	db, err := database.Open(sqlite.Open("file::memory:"), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, models.AutoMigrateCatalog(ctx, db))

	pool, err := workerpool.New(&workerpool.Config{Size: 2, ExpiryDuration: time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Release(time.Second) })

	log := logger.NewNop()
	clock := func() time.Time { return testNow }
	m := metrics.NewStorageMetricsWithRegistry(prometheus.NewRegistry())
	store := newFakeStore()
	locker := &fakeLocker{held: map[string]bool{}}

	catalog := data.NewCatalogRepo(db)
	snapshots := data.NewSnapshotRepo(db)
	accountant := biz.NewUsageAccountant(store, snapshots, m, log, clock)
	classifier := biz.NewInactivityClassifier(catalog, store, log, clock)
	collector := biz.NewGarbageCollector(catalog, data.NewCleanupLogRepo(db), data.NewTransactor(db), store,
		classifier, locker, pool, biz.CollectorConfig{}, m, log, clock)
	alerts := biz.NewAlertEvaluator(accountant, 1000, m, log, clock)
	bucket := biz.NewBucketAdmin(store, "dealer-media", []string{"vehicles/"}, log)
	upload := biz.NewUploadUseCase(store, catalog, processor.NewImageCompressor(), biz.UploadConfig{
		MaxWidth: 1920, MaxHeight: 1080, BudgetBytes: 300 * 1024, LogoBudgetBytes: 100 * 1024,
	}, m, log, clock)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(middleware.ContextUserID, uid)
		}
		c.Next()
	})
	NewStorageService(accountant, classifier, collector, alerts, bucket, log).RegisterRoutes(api.Group("/admin/storage"))
	NewUploadService(upload, 64*1024, log).RegisterRoutes(api)

	return &apiFixture{router: router, db: db, store: store, locker: locker}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return f.serve(t, req)
}

func (f *apiFixture) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (f *apiFixture) seedObsoleteImage(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	deleted := testNow.Add(-time.Hour)
	require.NoError(t, f.db.Conn(ctx).Create(&models.Tenant{ID: "t-1", CreatedAt: testNow, UpdatedAt: testNow}).Error)
	require.NoError(t, f.db.Conn(ctx).Create(&models.Vehicle{ID: "v-live", TenantID: "t-1", CreatedAt: testNow, UpdatedAt: testNow}).Error)
	require.NoError(t, f.db.Conn(ctx).Create(&models.Vehicle{ID: "v-gone", TenantID: "t-1", CreatedAt: testNow, UpdatedAt: testNow, DeletedAt: &deleted}).Error)
	require.NoError(t, f.db.Conn(ctx).Create(&models.VehicleImage{ID: "i-1", VehicleID: "v-gone", ObjectKey: "vehicles/v-gone/1.jpg", SizeBytes: 120, CreatedAt: testNow}).Error)
	f.store.objects["vehicles/v-gone/1.jpg"] = 120
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestStats(t *testing.T) {
	f := newAPIFixture(t)
	f.store.objects["a"] = 10
	f.store.objects["b"] = 30

	w, env := f.do(t, http.MethodGet, "/api/v1/admin/storage/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decode[StatsResponse](t, env.Data)
	assert.Equal(t, StatsResponse{Available: true, TotalBytes: 40, ObjectCount: 2, LargestObjectBytes: 30, CapacityBytes: 1000}, stats)

	f.store.unavailable = true
	w, env = f.do(t, http.MethodGet, "/api/v1/admin/storage/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stats = decode[StatsResponse](t, env.Data)
	assert.False(t, stats.Available)
	assert.Zero(t, stats.TotalBytes)
}

func TestRunSnapshot(t *testing.T) {
	f := newAPIFixture(t)
	f.store.objects["a"] = 10

	w, env := f.do(t, http.MethodPost, "/api/v1/admin/storage/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[SnapshotResponse](t, env.Data)
	assert.Equal(t, "2026-10-15", snap.SnapshotDate)
	assert.EqualValues(t, 10, snap.TotalBytes)

	f.store.unavailable = true
	w, env = f.do(t, http.MethodPost, "/api/v1/admin/storage/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.ErrStorageUnavailable, env.Code)
}

func TestGrowthValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		query  string
		status int
		code   int
	}{
		{name: "defaults", query: "", status: http.StatusOK, code: apperrors.Success},
		{name: "month", query: "?granularity=month&limit=6", status: http.StatusOK, code: apperrors.Success},
		{name: "bad granularity", query: "?granularity=year", status: http.StatusBadRequest, code: apperrors.ErrStorageInvalidRange},
		{name: "zero limit", query: "?limit=0", status: http.StatusBadRequest, code: apperrors.ErrStorageInvalidRange},
		{name: "non numeric limit", query: "?limit=ten", status: http.StatusBadRequest, code: apperrors.ErrStorageInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := f.do(t, http.MethodGet, "/api/v1/admin/storage/growth"+tt.query, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestCleanupFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.seedObsoleteImage(t)
	path := "/api/v1/admin/storage/cleanup"

	w, env := f.do(t, http.MethodPost, path, CleanupRequest{Target: "45"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrStorageInvalidTier, env.Code)

	w, env = f.do(t, http.MethodPost, path, CleanupRequest{Target: "obsolete"}, "X-Test-User", "admin-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[CleanupResponse](t, env.Data)
	assert.Equal(t, "obsolete", result.Trigger)
	assert.Equal(t, 1, result.DeletedCount)
	assert.EqualValues(t, 120, result.BytesFreed)
	assert.NotEmpty(t, result.LogID)
	assert.Empty(t, f.store.objects)

	w, env = f.do(t, http.MethodPost, path, CleanupRequest{Target: "obsolete"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decode[CleanupResponse](t, env.Data).NothingToDo)

	w, env = f.do(t, http.MethodGet, "/api/v1/admin/storage/cleanup/logs?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[struct {
		Items []CleanupLogResponse `json:"items"`
	}](t, env.Data)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, []string{"i-1"}, logs.Items[0].AffectedIDs)
	require.NotNil(t, logs.Items[0].TriggeredBy)
	assert.Equal(t, "admin-1", *logs.Items[0].TriggeredBy)
}

func TestCleanupLocked(t *testing.T) {
	f := newAPIFixture(t)
	f.locker.held[biz.GCLockKey] = true

	w, env := f.do(t, http.MethodPost, "/api/v1/admin/storage/cleanup", CleanupRequest{Target: "90"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrStorageCleanupLocked, env.Code)
}

func TestZombiesAndAlerts(t *testing.T) {
	f := newAPIFixture(t)
	f.store.objects["a"] = 900

	w, env := f.do(t, http.MethodGet, "/api/v1/admin/storage/zombies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[ZombieReportResponse](t, env.Data)
	assert.Len(t, report.Tiers, len(biz.Tiers))

	w, env = f.do(t, http.MethodGet, "/api/v1/admin/storage/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[struct {
		Items []AlertResponse `json:"items"`
	}](t, env.Data)
	require.Len(t, alerts.Items, 1)
	assert.Equal(t, "danger", alerts.Items[0].Severity)
}

func TestStatObject(t *testing.T) {
	f := newAPIFixture(t)
	f.store.objects["vehicles/v-1/1.jpg"] = 77

	w, env := f.do(t, http.MethodGet, "/api/v1/admin/storage/objects/stat?key=vehicles/v-1/1.jpg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 77, decode[ObjectInfoResponse](t, env.Data).Size)

	for _, q := range []string{"?key=missing", ""} {
		w, env = f.do(t, http.MethodGet, "/api/v1/admin/storage/objects/stat"+q, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrStorageObjectMissing, env.Code)
	}
}

func TestLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/v1/admin/storage/lifecycle"

	w, _ := f.do(t, http.MethodPut, path, LifecycleRequest{Rules: []LifecycleRuleDTO{{ID: "tmp", Prefix: "tmp/", ExpirationDays: 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rules := []LifecycleRuleDTO{{ID: "tmp", Prefix: "tmp/", ExpirationDays: 7, Enabled: true}}
	w, _ = f.do(t, http.MethodPut, path, LifecycleRequest{Rules: rules})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Rules []LifecycleRuleDTO `json:"rules"`
	}](t, env.Data)
	assert.Equal(t, rules, got.Rules)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadVehicleImage(t *testing.T) {
	f := newAPIFixture(t)
	f.seedObsoleteImage(t)
	photo := pngBytes(t, 64, 48)

	w, env := f.serve(t, multipartRequest(t, http.MethodPost, "/api/v1/vehicles/v-live/images", map[string]string{"order": "2"}, photo))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decode[ImageResponse](t, env.Data)
	assert.Equal(t, fmt.Sprintf("vehicles/v-live/%d-2.jpg", testNow.UnixMilli()), img.Key)
	assert.Contains(t, f.store.objects, img.Key)

	tests := []struct {
		name   string
		path   string
		fields map[string]string
		file   []byte
		status int
		code   int
	}{
		{name: "deleted vehicle", path: "/api/v1/vehicles/v-gone/images", file: photo, status: http.StatusNotFound, code: apperrors.ErrStorageOwnerNotFound},
		{name: "unknown vehicle", path: "/api/v1/vehicles/v-x/images", file: photo, status: http.StatusNotFound, code: apperrors.ErrStorageOwnerNotFound},
		{name: "missing file", path: "/api/v1/vehicles/v-live/images", status: http.StatusBadRequest, code: apperrors.ErrInvalidParams},
		{name: "bad order", path: "/api/v1/vehicles/v-live/images", fields: map[string]string{"order": "-1"}, file: photo, status: http.StatusBadRequest, code: apperrors.ErrInvalidParams},
		{name: "not an image", path: "/api/v1/vehicles/v-live/images", file: []byte("plain text"), status: http.StatusUnprocessableEntity, code: apperrors.ErrStorageImageDecode},
		{name: "too large", path: "/api/v1/vehicles/v-live/images", file: bytes.Repeat([]byte{1}, 70*1024), status: http.StatusRequestEntityTooLarge, code: apperrors.ErrStorageFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := f.serve(t, multipartRequest(t, http.MethodPost, tt.path, tt.fields, tt.file))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestUploadTenantLogo(t *testing.T) {
	f := newAPIFixture(t)
	f.seedObsoleteImage(t)
	logo := pngBytes(t, 32, 32)

	w, env := f.serve(t, multipartRequest(t, http.MethodPut, "/api/v1/tenants/t-1/logo?variant=dark", nil, logo))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "stores/t-1/logo-dark.jpg", decode[LogoResponse](t, env.Data).Key)

	w, env = f.serve(t, multipartRequest(t, http.MethodPut, "/api/v1/tenants/t-1/logo?variant=sepia", nil, logo))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrInvalidParams, env.Code)
	assert.True(t, strings.HasPrefix(env.Message, "Invalid parameters"))
}
