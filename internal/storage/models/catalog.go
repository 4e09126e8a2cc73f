// Package models holds the gorm models of the catalog tables the storage engine reads and writes.
package models

import "time"

// Tenant is owned by the account service; the storage engine only reads it.
type Tenant struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// Vehicle is soft-deleted by the inventory service. DeletedAt is a plain
// pointer so queries see deleted rows unless they filter explicitly.
type Vehicle struct {
	ID        string     `gorm:"type:varchar(36);primaryKey"`
	TenantID  string     `gorm:"type:varchar(36);not null;index:idx_vehicles_tenant"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	DeletedAt *time.Time `gorm:"index"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// VehicleImage is the catalog row of one stored vehicle photo.
type VehicleImage struct {
	ID           string     `gorm:"type:varchar(36);primaryKey"`
	VehicleID    string     `gorm:"type:varchar(36);not null;index:idx_vehicle_images_vehicle"`
	ObjectKey    string     `gorm:"column:object_key;type:varchar(512);not null;uniqueIndex"`
	SizeBytes    int64      `gorm:"not null;default:0"`
	DisplayOrder int        `gorm:"not null;default:0"`
	CreatedAt    time.Time  `gorm:"not null"`
	DeletedAt    *time.Time `gorm:"index"`
}

func (VehicleImage) TableName() string {
	return "vehicle_images"
}
