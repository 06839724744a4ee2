// dao/forecast_dao.go
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

type ForecastDAO struct {
	DB *gorm.DB
}

func NewForecastDAO(db *gorm.DB) *ForecastDAO {
	return &ForecastDAO{DB: db}
}

// UpsertForecast creates or refreshes the single forecast row for a
// (resource, forecast date) pair. Refreshing resets the status to projected
// so a re-run never leaves stale confirmations behind, and never duplicates
// the projection.
func (dao *ForecastDAO) UpsertForecast(ctx context.Context, forecast model.ResourceForecast) (*model.ResourceForecast, error) {
	var existing model.ResourceForecast
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND forecast_date = ?",
			forecast.TenantID, forecast.ResourceID, forecast.ForecastDate).
		First(&existing).Error

	switch {
	case err == nil:
		updates := map[string]interface{}{
			"projected_quantity": forecast.ProjectedQuantity,
			"confidence_level":   forecast.ConfidenceLevel,
			"factors":            forecast.Factors,
			"horizon_days":       forecast.HorizonDays,
			"status":             model.ForecastStatusProjected,
			"updated_at":         time.Now(),
		}
		if err := dao.DB.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			logger.Error("Failed to refresh forecast", zap.Error(err), zap.String("forecastID", existing.ID))
			return nil, agent_errors.ErrDatabaseOperation
		}
		existing.ProjectedQuantity = forecast.ProjectedQuantity
		existing.ConfidenceLevel = forecast.ConfidenceLevel
		existing.Factors = forecast.Factors
		existing.HorizonDays = forecast.HorizonDays
		existing.Status = model.ForecastStatusProjected
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		forecast.ID = uuid.New().String()
		forecast.Status = model.ForecastStatusProjected
		if err := dao.DB.WithContext(ctx).Create(&forecast).Error; err != nil {
			logger.Error("Failed to create forecast", zap.Error(err),
				zap.String("resourceID", forecast.ResourceID))
			return nil, agent_errors.ErrDatabaseOperation
		}
		return &forecast, nil

	default:
		logger.Error("Failed to look up forecast", zap.Error(err), zap.String("resourceID", forecast.ResourceID))
		return nil, agent_errors.ErrDatabaseOperation
	}
}

func (dao *ForecastDAO) GetForecast(ctx context.Context, tenantID, forecastID string) (*model.ResourceForecast, error) {
	var forecast model.ResourceForecast
	err := dao.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", forecastID, tenantID).
		First(&forecast).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agent_errors.ErrForecastNotFound
		}
		logger.Error("Failed to get forecast", zap.Error(err), zap.String("forecastID", forecastID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return &forecast, nil
}

func (dao *ForecastDAO) SearchForecasts(ctx context.Context, tenantID string, criteria model.ForecastSearchCriteria) ([]*model.ResourceForecast, error) {
	query := dao.DB.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if criteria.ResourceID != "" {
		query = query.Where("resource_id = ?", criteria.ResourceID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.MinConfidence > 0 {
		query = query.Where("confidence_level >= ?", criteria.MinConfidence)
	}
	if criteria.DateFrom != nil {
		query = query.Where("forecast_date >= ?", *criteria.DateFrom)
	}
	if criteria.DateTo != nil {
		query = query.Where("forecast_date <= ?", *criteria.DateTo)
	}

	limit := criteria.Limit
	if limit < 1 {
		limit = 100
	}
	offset := criteria.Offset
	if offset < 0 {
		offset = 0
	}

	var forecasts []*model.ResourceForecast
	if err := query.Order("forecast_date").Limit(limit).Offset(offset).Find(&forecasts).Error; err != nil {
		logger.Error("Failed to search forecasts", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return forecasts, nil
}

// ListEligibleForAdvanceOrder returns projected forecasts at the given
// horizon with a shortfall and at least the minimum confidence.
func (dao *ForecastDAO) ListEligibleForAdvanceOrder(ctx context.Context, tenantID string, horizonDays int, minConfidence float64) ([]*model.ResourceForecast, error) {
	var forecasts []*model.ResourceForecast
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND horizon_days = ? AND status = ? AND projected_quantity > 0 AND confidence_level >= ?",
			tenantID, horizonDays, model.ForecastStatusProjected, minConfidence).
		Find(&forecasts).Error
	if err != nil {
		logger.Error("Failed to list advance-order candidates", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return forecasts, nil
}

// ConfirmForecasts links the consumed forecasts to the request that covers
// them and flips them to confirmed.
func (dao *ForecastDAO) ConfirmForecasts(ctx context.Context, tenantID string, forecastIDs []string, requestID string) error {
	if len(forecastIDs) == 0 {
		return nil
	}
	err := dao.DB.WithContext(ctx).
		Model(&model.ResourceForecast{}).
		Where("tenant_id = ? AND id IN ?", tenantID, forecastIDs).
		Updates(map[string]interface{}{
			"status":     model.ForecastStatusConfirmed,
			"request_id": requestID,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to confirm forecasts", zap.Error(err), zap.String("requestID", requestID))
		return agent_errors.ErrDatabaseOperation
	}
	return nil
}
