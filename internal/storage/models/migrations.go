package models

import (
	"context"
	"fmt"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
)

// AutoMigrate migrates the tables owned by the storage engine.
func AutoMigrate(ctx context.Context, db *database.DB) error {
	return migrate(ctx, db, &UsageSnapshot{}, &CleanupLog{})
}

// AutoMigrateCatalog also creates the tenant, vehicle and image tables. Those
// belong to other services in production; this is for local setups and tests.
func AutoMigrateCatalog(ctx context.Context, db *database.DB) error {
	if err := migrate(ctx, db, &Tenant{}, &Vehicle{}, &VehicleImage{}); err != nil {
		return err
	}
	return AutoMigrate(ctx, db)
}

func migrate(ctx context.Context, db *database.DB, models ...any) error {
	for _, model := range models {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}
