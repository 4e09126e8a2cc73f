package biz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/metrics"
)

const jpegContentType = "image/jpeg"

// LogoVariant selects which tenant logo is written.
type LogoVariant string

const (
	LogoLight LogoVariant = "light"
	LogoDark  LogoVariant = "dark"
)

func ParseLogoVariant(s string) (LogoVariant, error) {
	switch v := LogoVariant(s); v {
	case "":
		return LogoLight, nil
	case LogoLight, LogoDark:
		return v, nil
	}
	return "", ErrInvalidLogoVariant
}

// UploadConfig sets the compression budgets.
type UploadConfig struct {
	MaxWidth        int
	MaxHeight       int
	BudgetBytes     int
	LogoBudgetBytes int
}

// UploadUseCase compresses uploads and writes them to the store and catalog.
type UploadUseCase struct {
	store      ObjectStore
	catalog    CatalogRepo
	compressor Compressor
	cfg        UploadConfig
	metrics    *metrics.StorageMetrics
	logger     *logger.Logger
	now        Clock
}

func NewUploadUseCase(store ObjectStore, catalog CatalogRepo, compressor Compressor, cfg UploadConfig, m *metrics.StorageMetrics, log *logger.Logger, clock Clock) *UploadUseCase {
	return &UploadUseCase{
		store:      store,
		catalog:    catalog,
		compressor: compressor,
		cfg:        cfg,
		metrics:    m,
		logger:     log.Named("upload"),
		now:        clock,
	}
}

// VehicleImageKey is vehicles/{vehicleId}/{unixMillis}-{order}.jpg.
func VehicleImageKey(vehicleID string, unixMillis int64, order int) string {
	return fmt.Sprintf("vehicles/%s/%d-%d.jpg", vehicleID, unixMillis, order)
}

// TenantLogoKey is stores/{tenantId}/logo.jpg, or logo-dark.jpg for the dark variant.
func TenantLogoKey(tenantID string, variant LogoVariant) string {
	if variant == LogoDark {
		return fmt.Sprintf("stores/%s/logo-dark.jpg", tenantID)
	}
	return fmt.Sprintf("stores/%s/logo.jpg", tenantID)
}

// UploadVehicleImage compresses data and stores it as a new image of the vehicle.
// Nothing is written when compression fails, and the object is removed again
// when the catalog insert fails.
func (uc *UploadUseCase) UploadVehicleImage(ctx context.Context, vehicleID string, displayOrder int, data []byte) (*ImageRecord, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	vehicle, err := uc.catalog.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.DeletedAt != nil {
		return nil, ErrVehicleNotFound
	}

	out, err := uc.compressor.Compress(data, uc.cfg.BudgetBytes, uc.cfg.MaxWidth, uc.cfg.MaxHeight)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveCompression(len(out))

	now := uc.now()
	img := &ImageRecord{
		ID:           uuid.NewString(),
		Key:          VehicleImageKey(vehicle.ID, now.UnixMilli(), displayOrder),
		VehicleID:    vehicle.ID,
		TenantID:     vehicle.TenantID,
		SizeBytes:    int64(len(out)),
		DisplayOrder: displayOrder,
		CreatedAt:    now,
	}

	if err := uc.store.Put(ctx, img.Key, out, jpegContentType); err != nil {
		return nil, err
	}

	if err := uc.catalog.CreateImage(ctx, img); err != nil {
		log := uc.logger.WithContext(ctx)
		if delErr := uc.store.Delete(context.WithoutCancel(ctx), img.Key); delErr != nil {
			log.Error("failed to remove object after catalog insert failed",
				zap.String("key", img.Key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create image record: %w", err)
	}

	uc.logger.WithContext(ctx).Info("vehicle image stored",
		zap.String("vehicle_id", vehicle.ID),
		zap.String("key", img.Key),
		zap.Int("input_bytes", len(data)),
		zap.Int64("stored_bytes", img.SizeBytes))
	return img, nil
}

// UploadTenantLogo compresses data and overwrites the tenant's logo object.
// It returns the object key and stored size.
func (uc *UploadUseCase) UploadTenantLogo(ctx context.Context, tenantID string, variant LogoVariant, data []byte) (string, int64, error) {
	if len(data) == 0 {
		return "", 0, ErrEmptyUpload
	}
	if _, err := ParseLogoVariant(string(variant)); err != nil {
		return "", 0, err
	}
	tenant, err := uc.catalog.GetTenant(ctx, tenantID)
	if err != nil {
		return "", 0, err
	}

	out, err := uc.compressor.Compress(data, uc.cfg.LogoBudgetBytes, uc.cfg.MaxWidth, uc.cfg.MaxHeight)
	if err != nil {
		return "", 0, err
	}
	uc.metrics.ObserveCompression(len(out))

	key := TenantLogoKey(tenant.ID, variant)
	if err := uc.store.Put(ctx, key, out, jpegContentType); err != nil {
		return "", 0, err
	}

	uc.logger.WithContext(ctx).Info("tenant logo stored",
		zap.String("tenant_id", tenant.ID),
		zap.String("key", key),
		zap.Int("stored_bytes", len(out)))
	return key, int64(len(out)), nil
}
