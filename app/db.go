package app

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	if err != nil {
		log.Sugar().Panic("failed to connect database", "err", err)
	}
	log.Info("Database started")

	log.Info("Starting migrations")
	db.AutoMigrate(
		&models.User{},
		&models.TrackedItem{},
		&models.PricePoint{},
		&models.AlertRule{},
		&models.NotificationEvent{},
		&models.SearchRequest{},
		&models.JobLogEntry{},
	)
	return db
}
