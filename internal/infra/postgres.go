package infra

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"milelog/internal/config"
	"milelog/internal/models/db_models"
)

func InitPostgresql(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL is not set")
	}

	connectionPool, err := gorm.Open(postgres.Open(cfg.PostgresURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.WithError(err).Error("Error connecting to database")
		return nil, err
	}

	sqlDB, err := connectionPool.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(connectionPool); err != nil {
		return nil, err
	}

	log.Info("PostgreSQL connection established")
	return connectionPool, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&db_models.Account{}, &db_models.Trip{}); err != nil {
		log.WithError(err).Error("Error migrating database schema")
		return err
	}
	return nil
}

func ClosePostgresql(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting database instance")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	} else {
		log.Info("PostgreSQL database connection closed successfully")
	}
}
