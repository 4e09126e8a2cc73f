package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/auth/middleware"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/response"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

const (
	defaultGrowthLimit = 30
	defaultLogLimit    = 20
)

// StorageService serves the admin storage dashboard under /api/v1/admin/storage.
type StorageService struct {
	accountant *biz.UsageAccountant
	classifier *biz.InactivityClassifier
	collector  *biz.GarbageCollector
	alerts     *biz.AlertEvaluator
	bucket     *biz.BucketAdmin
	logger     *logger.Logger
}

func NewStorageService(
	accountant *biz.UsageAccountant,
	classifier *biz.InactivityClassifier,
	collector *biz.GarbageCollector,
	alerts *biz.AlertEvaluator,
	bucket *biz.BucketAdmin,
	log *logger.Logger,
) *StorageService {
	return &StorageService{
		accountant: accountant,
		classifier: classifier,
		collector:  collector,
		alerts:     alerts,
		bucket:     bucket,
		logger:     log.Named("storage-api"),
	}
}

// RegisterRoutes mounts the admin endpoints on rg.
func (s *StorageService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/snapshots", s.RunSnapshot)
	rg.GET("/stats", s.GetStats)
	rg.GET("/growth", s.GetGrowth)
	rg.GET("/zombies", s.GetZombies)
	rg.POST("/cleanup", s.RunCleanup)
	rg.GET("/cleanup/logs", s.ListCleanupLogs)
	rg.GET("/alerts", s.GetAlerts)
	rg.GET("/objects/stat", s.StatObject)
	rg.GET("/lifecycle", s.GetLifecycle)
	rg.PUT("/lifecycle", s.SetLifecycle)
}

func (s *StorageService) RunSnapshot(c *gin.Context) {
	snap, err := s.accountant.RunSnapshot(c.Request.Context())
	if err != nil {
		s.fail(c, "snapshot failed", err)
		return
	}
	response.Success(c, toSnapshotResponse(snap))
}

// GetStats always answers 200; an unreachable store is reported as available=false.
func (s *StorageService) GetStats(c *gin.Context) {
	var resp StatsResponse
	if stats, ok := s.accountant.CurrentStats(c.Request.Context()).Stats(); ok {
		resp = StatsResponse{
			Available:          true,
			TotalBytes:         stats.TotalBytes,
			ObjectCount:        stats.ObjectCount,
			LargestObjectBytes: stats.LargestObjectBytes,
		}
	}
	if capacity, ok := s.alerts.Capacity(); ok {
		resp.CapacityBytes = capacity
	}
	response.Success(c, resp)
}

func (s *StorageService) GetGrowth(c *gin.Context) {
	granularity, err := biz.ParseGranularity(c.DefaultQuery("granularity", string(biz.GranularityDay)))
	if err != nil {
		s.fail(c, "invalid growth query", err)
		return
	}
	limit, ok := queryInt(c, "limit", defaultGrowthLimit)
	if !ok {
		s.fail(c, "invalid growth query", biz.ErrInvalidLimit)
		return
	}

	points, err := s.accountant.GrowthSeries(c.Request.Context(), granularity, limit)
	if err != nil {
		s.fail(c, "growth series failed", err)
		return
	}
	items := make([]GrowthPointResponse, len(points))
	for i, p := range points {
		items[i] = GrowthPointResponse(p)
	}
	response.Success(c, gin.H{"granularity": granularity, "points": items})
}

func (s *StorageService) GetZombies(c *gin.Context) {
	report, err := s.classifier.ZombieReport(c.Request.Context())
	if err != nil {
		s.fail(c, "zombie report failed", err)
		return
	}
	response.Success(c, toZombieReportResponse(report))
}

// RunCleanup records the JWT subject as the triggering user.
func (s *StorageService) RunCleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	target, err := biz.ParseCleanupTarget(req.Target)
	if err != nil {
		s.fail(c, "invalid cleanup target", err)
		return
	}

	var triggeredBy *string
	if userID, ok := middleware.GetUserID(c); ok {
		triggeredBy = &userID
	}

	result, err := s.collector.RunCleanup(c.Request.Context(), target, triggeredBy)
	if err != nil {
		s.fail(c, "cleanup failed", err)
		return
	}
	if result.NothingToDo {
		response.Accepted(c, result.Summary, toCleanupResponse(result))
		return
	}
	response.Success(c, toCleanupResponse(result))
}

func (s *StorageService) ListCleanupLogs(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultLogLimit)
	if !ok {
		s.fail(c, "invalid log query", biz.ErrInvalidLimit)
		return
	}
	entries, err := s.collector.ListCleanupLogs(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, "list cleanup logs failed", err)
		return
	}
	items := make([]CleanupLogResponse, len(entries))
	for i, e := range entries {
		items[i] = toCleanupLogResponse(e)
	}
	response.Success(c, gin.H{"items": items})
}

func (s *StorageService) GetAlerts(c *gin.Context) {
	alerts := s.alerts.Evaluate(c.Request.Context())
	items := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		items[i] = AlertResponse{Type: string(a.Type), Severity: string(a.Severity), Message: a.Message}
	}
	response.Success(c, gin.H{"items": items})
}

func (s *StorageService) StatObject(c *gin.Context) {
	info, err := s.bucket.StatObject(c.Request.Context(), c.Query("key"))
	if err != nil {
		s.fail(c, "stat object failed", err)
		return
	}
	response.Success(c, ObjectInfoResponse(*info))
}

func (s *StorageService) GetLifecycle(c *gin.Context) {
	rules, err := s.bucket.GetLifecycle(c.Request.Context())
	if err != nil {
		s.fail(c, "get lifecycle failed", err)
		return
	}
	response.Success(c, gin.H{"rules": toLifecycleDTOs(rules)})
}

func (s *StorageService) SetLifecycle(c *gin.Context) {
	var req LifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rules := make([]biz.LifecycleRule, len(req.Rules))
	for i, r := range req.Rules {
		rules[i] = biz.LifecycleRule(r)
	}
	if err := s.bucket.SetLifecycle(c.Request.Context(), rules); err != nil {
		s.fail(c, "set lifecycle failed", err)
		return
	}
	response.Success(c, gin.H{"rules": toLifecycleDTOs(rules)})
}

// fail logs server-side failures and renders err with its business code.
func (s *StorageService) fail(c *gin.Context, msg string, err error) {
	appErr := toAppError(err)
	logError(s.logger, c, msg, appErr)
	response.HandleError(c, appErr)
}

func logError(log *logger.Logger, c *gin.Context, msg string, err error) {
	l := log.WithContext(c.Request.Context())
	if isClientError(err) {
		l.Debug(msg, zap.Error(err))
		return
	}
	l.Error(msg, zap.Error(err))
}

// queryInt reads a positive integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
