package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sabohub/internal/models"
)

// OpenDB connects to Postgres. The returned handle is the only connection
// pool of the process and is passed explicitly to every repository.
func OpenDB(cfg Config, l gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: l})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.User{},
		&models.Customer{},
		&models.Route{},
		&models.RouteCustomer{},
		&models.JourneyPlan{},
		&models.JourneyCheckin{},
		&models.LocationPing{},
		&models.RouteOptimizationLog{},
		&models.CodeSequence{},
	}
}

// Migrate applies the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
