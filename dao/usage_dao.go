// dao/usage_dao.go
package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

type UsageDAO struct {
	DB *gorm.DB
}

func NewUsageDAO(db *gorm.DB) *UsageDAO {
	return &UsageDAO{DB: db}
}

// RecordUsage appends one immutable usage fact. There is no update or delete
// path; the series only grows.
func (dao *UsageDAO) RecordUsage(ctx context.Context, usage model.ResourceUsage) (string, error) {
	if usage.ID == "" {
		usage.ID = uuid.New().String()
	}
	if usage.UsageDate.IsZero() {
		usage.UsageDate = time.Now()
	}

	if err := dao.DB.WithContext(ctx).Create(&usage).Error; err != nil {
		logger.Error("Failed to record usage", zap.Error(err),
			zap.String("tenantID", usage.TenantID),
			zap.String("resourceID", usage.ResourceID))
		return "", agent_errors.ErrDatabaseOperation
	}
	return usage.ID, nil
}

// ListUsageSince returns a resource's usage rows newer than the cutoff,
// oldest first.
func (dao *UsageDAO) ListUsageSince(ctx context.Context, tenantID, resourceID string, since time.Time) ([]*model.ResourceUsage, error) {
	var rows []*model.ResourceUsage
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND usage_date >= ?", tenantID, resourceID, since).
		Order("usage_date").
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to list usage", zap.Error(err), zap.String("resourceID", resourceID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return rows, nil
}

// ListTenantUsageSince returns all usage rows of a tenant newer than the
// cutoff. Fed into turnover and inactivity suggestions.
func (dao *UsageDAO) ListTenantUsageSince(ctx context.Context, tenantID string, since time.Time) ([]*model.ResourceUsage, error) {
	var rows []*model.ResourceUsage
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND usage_date >= ?", tenantID, since).
		Order("usage_date").
		Find(&rows).Error
	if err != nil {
		logger.Error("Failed to list tenant usage", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return rows, nil
}
