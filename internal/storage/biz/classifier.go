package biz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
)

// InactivityClassifier places tenants into inactivity tiers and reports the
// storage held by inactive tenants.
type InactivityClassifier struct {
	catalog CatalogRepo
	store   ObjectStore
	logger  *logger.Logger
	now     Clock
}

func NewInactivityClassifier(catalog CatalogRepo, store ObjectStore, log *logger.Logger, clock Clock) *InactivityClassifier {
	return &InactivityClassifier{
		catalog: catalog,
		store:   store,
		logger:  log.Named("classifier"),
		now:     clock,
	}
}

// LastActivity is the latest of the tenant's own update and the updates of
// its non-deleted vehicles. Vehicles of other tenants are ignored.
func LastActivity(tenant *Tenant, vehicles []*Vehicle) time.Time {
	last := tenant.UpdatedAt
	for _, v := range vehicles {
		if v.TenantID != tenant.ID || v.DeletedAt != nil {
			continue
		}
		if v.UpdatedAt.After(last) {
			last = v.UpdatedAt
		}
	}
	return last
}

// Classify returns the largest tier whose cutoff lastActivity falls strictly before.
func Classify(lastActivity, now time.Time) Tier {
	tier := TierNone
	for _, t := range Tiers {
		if lastActivity.Before(t.Cutoff(now)) {
			tier = t
		}
	}
	return tier
}

// TenantTiers classifies every tenant at the current time.
func (c *InactivityClassifier) TenantTiers(ctx context.Context) (map[string]Tier, error) {
	tenants, err := c.catalog.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	vehicles, err := c.catalog.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	byTenant := make(map[string][]*Vehicle, len(tenants))
	for _, v := range vehicles {
		byTenant[v.TenantID] = append(byTenant[v.TenantID], v)
	}

	now := c.now()
	tiers := make(map[string]Tier, len(tenants))
	for _, t := range tenants {
		tiers[t.ID] = Classify(LastActivity(t, byTenant[t.ID]), now)
	}
	return tiers, nil
}

// InactiveTenants returns the ids of tenants inactive beyond tier. The set for
// a longer tier is always a subset of the set for a shorter one.
func (c *InactivityClassifier) InactiveTenants(ctx context.Context, tier Tier) ([]string, error) {
	if _, err := ParseTier(int(tier)); err != nil {
		return nil, err
	}
	tiers, err := c.TenantTiers(ctx)
	if err != nil {
		return nil, err
	}
	return tenantsAtOrBeyond(tiers, tier), nil
}

func tenantsAtOrBeyond(tiers map[string]Tier, tier Tier) []string {
	var ids []string
	for id, t := range tiers {
		if t >= tier {
			ids = append(ids, id)
		}
	}
	return ids
}

// ZombieReport counts non-deleted images of inactive tenants per tier. Sizes
// come from a live listing when possible; keys missing from the listing, or
// every key when the store is unavailable, fall back to the catalog size.
func (c *InactivityClassifier) ZombieReport(ctx context.Context) (*ZombieReport, error) {
	tiers, err := c.TenantTiers(ctx)
	if err != nil {
		return nil, err
	}

	report := &ZombieReport{GeneratedAt: c.now()}
	for _, t := range Tiers {
		report.Tiers = append(report.Tiers, ZombieTier{
			Tier:        t,
			TenantCount: len(tenantsAtOrBeyond(tiers, t)),
		})
	}

	inactive := tenantsAtOrBeyond(tiers, Tiers[0])
	if len(inactive) == 0 {
		report.LiveSizes = true
		return report, nil
	}

	images, err := c.catalog.ListLiveImagesByTenants(ctx, inactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of inactive tenants: %w", err)
	}

	liveSizes, err := c.liveSizes(ctx)
	if err != nil {
		c.logger.WithContext(ctx).Warn("live listing unavailable, using catalog sizes", zap.Error(err))
	}
	report.LiveSizes = err == nil

	for _, img := range images {
		size, ok := liveSizes[img.Key]
		if !ok {
			size = img.SizeBytes
		}
		tenantTier := tiers[img.TenantID]
		for i := range report.Tiers {
			if tenantTier >= report.Tiers[i].Tier {
				report.Tiers[i].FileCount++
				report.Tiers[i].TotalBytes += size
			}
		}
	}
	return report, nil
}

func (c *InactivityClassifier) liveSizes(ctx context.Context) (map[string]int64, error) {
	sizes := make(map[string]int64)
	err := forEachObject(ctx, c.store, func(obj ObjectEntry) {
		sizes[obj.Key] = obj.Size
	})
	if err != nil {
		return nil, err
	}
	return sizes, nil
}
