// Package gormstore implements the persistence ports on GORM. The shared
// *gorm.DB is the collaborator that owns durable storage and transaction
// boundaries; repositories here issue individual operations only.
package gormstore

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/domain/models"
)

// Open connects to postgres and migrates the two auth-core tables.
// TranslateError is on so uniqueness conflicts surface as
// gorm.ErrDuplicatedKey across drivers.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the auth-core schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.RevokedToken{}, &models.UsedResetToken{})
}
