// service/forecast_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stonefield/resourcing/access"
	agent_errors "github.com/stonefield/resourcing/errors"
	"github.com/stonefield/resourcing/forecast"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/scheduler"
	"github.com/stonefield/resourcing/util"
)

type forecastStore interface {
	UpsertForecast(ctx context.Context, forecast model.ResourceForecast) (*model.ResourceForecast, error)
	GetForecast(ctx context.Context, tenantID, forecastID string) (*model.ResourceForecast, error)
	SearchForecasts(ctx context.Context, tenantID string, criteria model.ForecastSearchCriteria) ([]*model.ResourceForecast, error)
}

type forecastResourceStore interface {
	ListActiveResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error)
}

type advanceRunner interface {
	RunAdvanceOrders(ctx context.Context, tenantID string) error
}

// IForecastService defines the interface for forecasting operations
type IForecastService interface {
	GenerateForecasts(ctx context.Context, tenantID string) error
	GetForecast(ctx context.Context, tenantID, forecastID string) (*model.ResourceForecast, error)
	SearchForecasts(ctx context.Context, tenantID string, criteria model.ForecastSearchCriteria) ([]*model.ResourceForecast, error)
}

// ForecastService projects future demand from recorded usage. Each run
// recomputes the standard horizons for every resource with usage history
// and at least one stock threshold, updating projections in place.
type ForecastService struct {
	gate       featureGate
	configs    agentConfigStore
	resources  forecastResourceStore
	usage      usageStore
	forecasts  forecastStore
	advance    advanceRunner
	eventBus   *util.EventBus
	windowDays int
}

var _ IForecastService = &ForecastService{}

func NewForecastService(gate featureGate, configs agentConfigStore, resources forecastResourceStore, usage usageStore, forecasts forecastStore, advance advanceRunner, eventBus *util.EventBus, windowDays int) *ForecastService {
	if windowDays < 1 {
		windowDays = forecast.DefaultWindowDays
	}
	return &ForecastService{
		gate:       gate,
		configs:    configs,
		resources:  resources,
		usage:      usage,
		forecasts:  forecasts,
		advance:    advance,
		eventBus:   eventBus,
		windowDays: windowDays,
	}
}

// GenerateForecasts runs one forecasting cycle for a tenant. Per-resource
// failures are logged and skipped so one bad series cannot starve the rest.
func (s *ForecastService) GenerateForecasts(ctx context.Context, tenantID string) error {
	defer metrics.TrackJobRun(scheduler.KindForecast)(time.Now())

	if !s.gate.HasAgentAccess(ctx, tenantID, access.FeatureForecasting) {
		return nil
	}
	config, err := s.configs.GetByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, agent_errors.ErrConfigNotFound) {
		metrics.RecordJobFailure(scheduler.KindForecast)
		logger.Error("Failed to load agent configuration", zap.Error(err), zap.String("tenantID", tenantID))
		return err
	}
	if config == nil || !config.Enabled {
		logger.Info("Forecast run skipped, agent not configured", zap.String("tenantID", tenantID))
		return nil
	}

	resources, err := s.resources.ListActiveResources(ctx, tenantID)
	if err != nil {
		metrics.RecordJobFailure(scheduler.KindForecast)
		return err
	}

	since := time.Now().AddDate(0, 0, -s.windowDays)
	forecasted := 0
	for _, resource := range resources {
		if !hasThreshold(resource) {
			continue
		}
		if err := s.forecastResource(ctx, tenantID, resource, since); err != nil {
			metrics.RecordJobFailure(scheduler.KindForecast)
			logger.Error("Forecasting failed for resource",
				zap.Error(err),
				zap.String("tenantID", tenantID),
				zap.String("resourceID", resource.ID))
			continue
		}
		forecasted++
	}

	logger.Info("Forecast run complete",
		zap.String("tenantID", tenantID),
		zap.Int("resources", forecasted))
	s.eventBus.Publish(ctx, util.EventForecastsGenerated, tenantID)

	if config.AdvanceOrderEnabled && s.advance != nil {
		if err := s.advance.RunAdvanceOrders(ctx, tenantID); err != nil {
			logger.Error("Advance order processing failed", zap.Error(err), zap.String("tenantID", tenantID))
		}
	}
	return nil
}

func (s *ForecastService) forecastResource(ctx context.Context, tenantID string, resource *model.ResourceItem, since time.Time) error {
	usage, err := s.usage.ListUsageSince(ctx, tenantID, resource.ID, since)
	if err != nil {
		return err
	}
	if len(usage) == 0 {
		return nil
	}

	samples := make([]forecast.Sample, 0, len(usage))
	for _, u := range usage {
		samples = append(samples, forecast.Sample{Date: u.UsageDate, Quantity: u.Quantity})
	}

	avg := forecast.AverageUsage(samples)
	growth := forecast.GrowthFactor(samples)
	cv := forecast.CoefficientOfVariation(samples)

	now := time.Now()
	for _, horizon := range forecast.DefaultHorizons {
		date := now.AddDate(0, 0, horizon).Truncate(24 * time.Hour)
		seasonality := forecast.SeasonalityFactor(samples, date)
		projected := forecast.ProjectedQuantity(avg, seasonality, growth, horizon, resource.CurrentQuantity)
		confidence := forecast.Confidence(len(samples), cv, horizon)

		_, err := s.forecasts.UpsertForecast(ctx, model.ResourceForecast{
			TenantID:          tenantID,
			ResourceID:        resource.ID,
			ForecastDate:      date,
			HorizonDays:       horizon,
			ProjectedQuantity: projected,
			ConfidenceLevel:   confidence,
			Factors: model.ForecastFactors{
				HistoricalUsage: avg,
				Seasonality:     seasonality,
				ProjectGrowth:   growth,
			},
			Status: model.ForecastStatusProjected,
		})
		if err != nil {
			return err
		}
		metrics.RecordForecastUpserted()
	}
	return nil
}

func (s *ForecastService) GetForecast(ctx context.Context, tenantID, forecastID string) (*model.ResourceForecast, error) {
	return s.forecasts.GetForecast(ctx, tenantID, forecastID)
}

func (s *ForecastService) SearchForecasts(ctx context.Context, tenantID string, criteria model.ForecastSearchCriteria) ([]*model.ResourceForecast, error) {
	return s.forecasts.SearchForecasts(ctx, tenantID, criteria)
}

// hasThreshold reports whether the resource carries any stock threshold.
// Items without one are never forecast.
func hasThreshold(resource *model.ResourceItem) bool {
	return resource.MinQuantity != nil || resource.OptimalQuantity != nil || resource.MaxQuantity != nil
}
