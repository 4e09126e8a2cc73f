package biz

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
)

const (
	usageWarningRatio = 0.70
	usageDangerRatio  = 0.85
	growthWarnRatio   = 0.5
	growthWindowDays  = 30
)

// AlertEvaluator derives usage and growth alerts from current stats.
type AlertEvaluator struct {
	accountant *UsageAccountant
	// capacity of 0 disables usage alerts
	capacity int64
	metrics  *metrics.StorageMetrics
	logger   *logger.Logger
	now      Clock
}

func NewAlertEvaluator(accountant *UsageAccountant, capacityBytes int64, m *metrics.StorageMetrics, log *logger.Logger, clock Clock) *AlertEvaluator {
	return &AlertEvaluator{
		accountant: accountant,
		capacity:   capacityBytes,
		metrics:    m,
		logger:     log.Named("alerts"),
		now:        clock,
	}
}

// Capacity returns the configured limit and whether one is set.
func (e *AlertEvaluator) Capacity() (int64, bool) {
	return e.capacity, e.capacity > 0
}

// Evaluate never fails. An unavailable store yields no alerts, and a
// snapshot lookup error only suppresses the growth alert.
func (e *AlertEvaluator) Evaluate(ctx context.Context) []Alert {
	stats, ok := e.accountant.CurrentStats(ctx).Stats()
	if !ok {
		return []Alert{}
	}

	prior, err := e.accountant.SnapshotOn(ctx, e.now().AddDate(0, 0, -growthWindowDays))
	if err != nil {
		e.logger.WithContext(ctx).Warn("prior snapshot lookup failed, skipping growth alert", zap.Error(err))
		prior = nil
	}

	alerts := EvaluateAlerts(stats, prior, e.capacity)

	counts := map[string]int{string(SeverityWarning): 0, string(SeverityDanger): 0}
	for _, a := range alerts {
		counts[string(a.Severity)]++
	}
	e.metrics.ObserveAlerts(counts)
	return alerts
}

// EvaluateAlerts applies the thresholds. At most one usage alert is raised,
// danger taking precedence over warning. Growth is measured against the
// current total.
func EvaluateAlerts(stats StorageStats, prior *UsageSnapshot, capacity int64) []Alert {
	alerts := []Alert{}

	if capacity > 0 {
		ratio := float64(stats.TotalBytes) / float64(capacity)
		switch {
		case ratio >= usageDangerRatio:
			alerts = append(alerts, Alert{
				Type:     AlertUsage,
				Severity: SeverityDanger,
				Message:  fmt.Sprintf("storage usage at %.1f%% of capacity", ratio*100),
			})
		case ratio >= usageWarningRatio:
			alerts = append(alerts, Alert{
				Type:     AlertUsage,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("storage usage at %.1f%% of capacity", ratio*100),
			})
		}
	}

	if prior != nil && stats.TotalBytes > 0 {
		growth := float64(stats.TotalBytes-prior.TotalBytes) / float64(stats.TotalBytes)
		if growth > growthWarnRatio {
			alerts = append(alerts, Alert{
				Type:     AlertGrowth,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("storage grew %.1f%% over the last %d days", growth*100, growthWindowDays),
			})
		}
	}
	return alerts
}
