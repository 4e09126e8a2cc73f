package data

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
	"github.com/lk2023060901/dealer-backend/internal/storage/models"
)

// inClauseChunk bounds the number of bind parameters per IN (...) query.
const inClauseChunk = 500

type CatalogRepo struct {
	db *database.DB
}

func NewCatalogRepo(db *database.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ biz.CatalogRepo = (*CatalogRepo)(nil)

func (r *CatalogRepo) ListTenants(ctx context.Context) ([]*biz.Tenant, error) {
	var pos []models.Tenant
	if err := r.db.Conn(ctx).Order("id").Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	out := make([]*biz.Tenant, len(pos))
	for i := range pos {
		out[i] = toTenant(&pos[i])
	}
	return out, nil
}

func (r *CatalogRepo) ListVehicles(ctx context.Context) ([]*biz.Vehicle, error) {
	var pos []models.Vehicle
	if err := r.db.Conn(ctx).Order("id").Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	out := make([]*biz.Vehicle, len(pos))
	for i := range pos {
		out[i] = toVehicle(&pos[i])
	}
	return out, nil
}

func (r *CatalogRepo) GetTenant(ctx context.Context, id string) (*biz.Tenant, error) {
	var po models.Tenant
	if err := r.db.Conn(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return toTenant(&po), nil
}

func (r *CatalogRepo) GetVehicle(ctx context.Context, id string) (*biz.Vehicle, error) {
	var po models.Vehicle
	if err := r.db.Conn(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return toVehicle(&po), nil
}

// imageRow is a vehicle image joined with its vehicle's tenant.
type imageRow struct {
	models.VehicleImage `gorm:"embedded"`
	TenantID            string
}

func (r *CatalogRepo) liveImages(ctx context.Context) *gorm.DB {
	return r.db.Conn(ctx).
		Table("vehicle_images").
		Select("vehicle_images.*, vehicles.tenant_id").
		Joins("JOIN vehicles ON vehicles.id = vehicle_images.vehicle_id").
		Where("vehicle_images.deleted_at IS NULL").
		Order("vehicle_images.id")
}

func (r *CatalogRepo) ListLiveImagesByTenants(ctx context.Context, tenantIDs []string) ([]*biz.ImageRecord, error) {
	var out []*biz.ImageRecord
	for chunk := range slices.Chunk(tenantIDs, inClauseChunk) {
		var rows []imageRow
		err := r.liveImages(ctx).Where("vehicles.tenant_id IN ?", chunk).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list images by tenant: %w", err)
		}
		for i := range rows {
			out = append(out, toImage(&rows[i]))
		}
	}
	return out, nil
}

func (r *CatalogRepo) ListLiveImagesOnDeletedVehicles(ctx context.Context) ([]*biz.ImageRecord, error) {
	var rows []imageRow
	err := r.liveImages(ctx).Where("vehicles.deleted_at IS NOT NULL").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images on deleted vehicles: %w", err)
	}
	out := make([]*biz.ImageRecord, len(rows))
	for i := range rows {
		out[i] = toImage(&rows[i])
	}
	return out, nil
}

// MarkImagesDeleted sets deleted_at on rows that are not deleted yet.
func (r *CatalogRepo) MarkImagesDeleted(ctx context.Context, ids []string, at time.Time) error {
	for chunk := range slices.Chunk(ids, inClauseChunk) {
		err := r.db.Conn(ctx).
			Model(&models.VehicleImage{}).
			Where("id IN ? AND deleted_at IS NULL", chunk).
			Update("deleted_at", at).Error
		if err != nil {
			return fmt.Errorf("failed to mark images deleted: %w", err)
		}
	}
	return nil
}

func (r *CatalogRepo) CreateImage(ctx context.Context, img *biz.ImageRecord) error {
	po := &models.VehicleImage{
		ID:           img.ID,
		VehicleID:    img.VehicleID,
		ObjectKey:    img.Key,
		SizeBytes:    img.SizeBytes,
		DisplayOrder: img.DisplayOrder,
		CreatedAt:    img.CreatedAt,
	}
	if err := r.db.Conn(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

func toTenant(po *models.Tenant) *biz.Tenant {
	return &biz.Tenant{ID: po.ID, Name: po.Name, UpdatedAt: po.UpdatedAt}
}

func toVehicle(po *models.Vehicle) *biz.Vehicle {
	return &biz.Vehicle{ID: po.ID, TenantID: po.TenantID, UpdatedAt: po.UpdatedAt, DeletedAt: po.DeletedAt}
}

func toImage(row *imageRow) *biz.ImageRecord {
	return &biz.ImageRecord{
		ID:           row.ID,
		Key:          row.ObjectKey,
		VehicleID:    row.VehicleID,
		TenantID:     row.TenantID,
		SizeBytes:    row.SizeBytes,
		DisplayOrder: row.DisplayOrder,
		CreatedAt:    row.CreatedAt,
		DeletedAt:    row.DeletedAt,
	}
}
