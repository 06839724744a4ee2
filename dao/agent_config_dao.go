// dao/agent_config_dao.go
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stonefield/resourcing/db"
	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

type AgentConfigDAO struct {
	DB *gorm.DB
}

func NewAgentConfigDAO(gormDB *gorm.DB) *AgentConfigDAO {
	return &AgentConfigDAO{DB: gormDB}
}

// GetByTenant returns the tenant's configuration, consulting the cache
// before the database.
func (dao *AgentConfigDAO) GetByTenant(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	if cached, err := db.GetCachedAgentConfig(ctx, tenantID); err == nil && cached != nil {
		return cached, nil
	}

	var config model.AgentConfiguration
	err := dao.DB.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agent_errors.ErrConfigNotFound
		}
		logger.Error("Failed to get agent config", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}

	if err := db.CacheAgentConfig(ctx, &config); err != nil {
		logger.Warn("Failed to cache agent config", zap.Error(err), zap.String("tenantID", tenantID))
	}
	return &config, nil
}

// Upsert creates or replaces the tenant's configuration and refreshes the
// cache.
func (dao *AgentConfigDAO) Upsert(ctx context.Context, config model.AgentConfiguration) (*model.AgentConfiguration, error) {
	var existing model.AgentConfiguration
	err := dao.DB.WithContext(ctx).Where("tenant_id = ?", config.TenantID).First(&existing).Error
	switch {
	case err == nil:
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
		config.UpdatedAt = time.Now()
		if err := dao.DB.WithContext(ctx).Save(&config).Error; err != nil {
			logger.Error("Failed to update agent config", zap.Error(err), zap.String("tenantID", config.TenantID))
			return nil, agent_errors.ErrDatabaseOperation
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if config.ID == "" {
			config.ID = uuid.New().String()
		}
		if err := dao.DB.WithContext(ctx).Create(&config).Error; err != nil {
			logger.Error("Failed to create agent config", zap.Error(err), zap.String("tenantID", config.TenantID))
			return nil, agent_errors.ErrDatabaseOperation
		}
	default:
		logger.Error("Failed to load agent config", zap.Error(err), zap.String("tenantID", config.TenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}

	if err := db.CacheAgentConfig(ctx, &config); err != nil {
		logger.Warn("Failed to cache agent config", zap.Error(err), zap.String("tenantID", config.TenantID))
	}

	logger.Info("Agent config saved",
		zap.String("tenantID", config.TenantID),
		zap.Bool("enabled", config.Enabled))
	return &config, nil
}

// ListEnabled returns every tenant configuration with the engine switched
// on, used at startup to schedule recurring jobs.
func (dao *AgentConfigDAO) ListEnabled(ctx context.Context) ([]*model.AgentConfiguration, error) {
	var configs []*model.AgentConfiguration
	if err := dao.DB.WithContext(ctx).Where("enabled = ?", true).Find(&configs).Error; err != nil {
		logger.Error("Failed to list enabled agent configs", zap.Error(err))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return configs, nil
}
