// db/db.go
package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stonefield/resourcing/config"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

var DB *gorm.DB

func InitDB() error {
	dsn := config.GetString("database.dsn")

	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	var err error
	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.GetInt("database.maxIdleConns"))
	sqlDB.SetMaxOpenConns(config.GetInt("database.maxOpenConns"))

	if err := DB.AutoMigrate(
		&model.ResourceItem{},
		&model.ResourceUsage{},
		&model.ResourceForecast{},
		&model.ResourceRequest{},
		&model.AgentConfiguration{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	logger.Info("Successfully connected to Postgres")
	return nil
}

func CloseDB() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		logger.Error("Error getting database handle on close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection", zap.Error(err))
	} else {
		logger.Info("Database connection closed successfully")
	}
}
