// service/advance_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stonefield/resourcing/access"
	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/replenish"
)

// predictionSources is the merge domain of forecast-driven requests.
var predictionSources = []string{model.SourcePrediction}

type advanceForecastStore interface {
	ListEligibleForAdvanceOrder(ctx context.Context, tenantID string, horizonDays int, minConfidence float64) ([]*model.ResourceForecast, error)
	ConfirmForecasts(ctx context.Context, tenantID string, forecastIDs []string, requestID string) error
}

type advanceResourceStore interface {
	GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error)
}

// advanceNotifier is the notification surface the processor fans out on.
type advanceNotifier interface {
	NotifyRequestPending(ctx context.Context, request model.ResourceRequest, approverIDs []string) error
	NotifyAdvanceOrders(ctx context.Context, tenantID string, managerIDs []string, requests []*model.ResourceRequest) error
}

// IAdvanceOrderService defines the interface for forecast-driven ordering
type IAdvanceOrderService interface {
	RunAdvanceOrders(ctx context.Context, tenantID string) error
}

// AdvanceOrderService turns confident forecasts into replenishment requests
// ahead of projected demand. It runs after each forecast cycle for tenants
// with advance ordering enabled.
type AdvanceOrderService struct {
	gate            featureGate
	configs         agentConfigStore
	forecasts       advanceForecastStore
	resources       advanceResourceStore
	requests        requestStore
	notificationSvc advanceNotifier
}

var _ IAdvanceOrderService = &AdvanceOrderService{}

func NewAdvanceOrderService(gate featureGate, configs agentConfigStore, forecasts advanceForecastStore, resources advanceResourceStore, requests requestStore, notificationSvc advanceNotifier) *AdvanceOrderService {
	return &AdvanceOrderService{
		gate:            gate,
		configs:         configs,
		forecasts:       forecasts,
		resources:       resources,
		requests:        requests,
		notificationSvc: notificationSvc,
	}
}

// forecastLine pairs a forecast with its resource for grouping.
type forecastLine struct {
	forecast *model.ResourceForecast
	resource *model.ResourceItem
}

// RunAdvanceOrders selects forecasts at the tenant's advance-order horizon
// that clear its confidence floor and folds them into prediction-sourced
// requests, one per supplier. Consumed forecasts are linked to their request
// and flipped to confirmed.
func (s *AdvanceOrderService) RunAdvanceOrders(ctx context.Context, tenantID string) error {
	if !s.gate.HasAgentAccess(ctx, tenantID, access.FeatureAdvanceOrders) {
		return nil
	}
	config, err := s.configs.GetByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, agent_errors.ErrConfigNotFound) {
		logger.Error("Failed to load agent configuration", zap.Error(err), zap.String("tenantID", tenantID))
		return err
	}
	if config == nil || !config.Enabled || !config.AdvanceOrderEnabled {
		logger.Info("Advance ordering skipped, not enabled", zap.String("tenantID", tenantID))
		return nil
	}

	eligible, err := s.forecasts.ListEligibleForAdvanceOrder(ctx, tenantID, config.AdvanceOrderDays, config.MinConfidence)
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		logger.Info("No forecasts eligible for advance ordering", zap.String("tenantID", tenantID))
		return nil
	}

	groups := make(map[string][]forecastLine)
	for _, f := range eligible {
		resource, err := s.resources.GetResource(ctx, tenantID, f.ResourceID)
		if err != nil {
			logger.Warn("Skipping forecast, resource unavailable",
				zap.Error(err),
				zap.String("tenantID", tenantID),
				zap.String("resourceID", f.ResourceID))
			continue
		}
		supplier := resource.SupplierOrUnknown()
		groups[supplier] = append(groups[supplier], forecastLine{forecast: f, resource: resource})
	}

	var placed []*model.ResourceRequest
	for supplier, lines := range groups {
		request, err := s.processGroup(ctx, tenantID, supplier, lines, config)
		if err != nil {
			logger.Error("Advance order group failed",
				zap.Error(err),
				zap.String("tenantID", tenantID),
				zap.String("supplier", supplier))
			continue
		}
		if request != nil {
			placed = append(placed, request)
		}
	}

	s.notifyManagers(ctx, tenantID, config, placed)
	return nil
}

// processGroup folds one supplier's forecast lines into a request and returns
// the request it created or extended, or nil when every line was covered.
func (s *AdvanceOrderService) processGroup(ctx context.Context, tenantID, supplier string, lines []forecastLine, config *model.AgentConfiguration) (*model.ResourceRequest, error) {
	open, err := s.requests.FindOpenBySupplier(ctx, tenantID, supplier, predictionSources)
	if err != nil {
		return nil, err
	}

	if open != nil {
		var items []model.RequestItem
		var forecastIDs []string
		for _, line := range lines {
			if open.HasResource(line.resource.ID) {
				continue
			}
			items = append(items, replenish.LineItem(line.resource, line.forecast.ProjectedQuantity))
			forecastIDs = append(forecastIDs, line.forecast.ID)
		}
		if len(items) == 0 {
			return nil, nil
		}
		note := fmt.Sprintf("%d forecast lines added by advance ordering", len(items))
		merged, err := s.requests.MergeItems(ctx, open, items, SystemActor, note)
		if err != nil {
			return nil, err
		}
		metrics.RecordRequestMerged()
		if err := s.forecasts.ConfirmForecasts(ctx, tenantID, forecastIDs, open.ID); err != nil {
			return nil, err
		}
		return merged, nil
	}

	items := make([]model.RequestItem, 0, len(lines))
	forecastIDs := make([]string, 0, len(lines))
	confidenceSum := 0.0
	for _, line := range lines {
		items = append(items, replenish.LineItem(line.resource, line.forecast.ProjectedQuantity))
		forecastIDs = append(forecastIDs, line.forecast.ID)
		confidenceSum += line.forecast.ConfidenceLevel
	}
	confidenceAvg := confidenceSum / float64(len(lines))

	// Order far enough ahead that delivery lands before the projected need.
	leadDays := config.LeadTimeDays(model.PriorityMedium)
	offsetDays := config.AdvanceOrderDays - leadDays
	if offsetDays < 0 {
		offsetDays = 0
	}
	neededBy := time.Now().AddDate(0, 0, offsetDays)

	request := model.ResourceRequest{
		TenantID:    tenantID,
		RequestedBy: SystemActor,
		Status:      model.RequestStatusPending,
		Priority:    model.PriorityMedium,
		Source:      model.SourcePrediction,
		Supplier:    supplier,
		Title:       fmt.Sprintf("Advance order for supplier %s", supplier),
		Description: fmt.Sprintf("%d items projected to run short within %d days", len(items), config.AdvanceOrderDays),
		Items:       items,
		NeededBy:    &neededBy,
		Metadata: map[string]string{
			model.MetaGeneratedBy:       SystemActor,
			model.MetaSupplier:          supplier,
			model.MetaForecastBased:     "true",
			model.MetaConfidenceAverage: strconv.FormatFloat(confidenceAvg, 'f', 2, 64),
		},
		History: []model.RequestHistoryEntry{{
			Action:    "created",
			Actor:     SystemActor,
			Timestamp: time.Now(),
			NewStatus: model.RequestStatusPending,
		}},
	}

	created, err := s.requests.CreateRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	metrics.RecordRequestCreated(model.SourcePrediction)

	logger.Info("Advance order request created",
		zap.String("requestID", created.ID),
		zap.String("tenantID", tenantID),
		zap.String("supplier", supplier),
		zap.Float64("confidenceAvg", confidenceAvg))

	if err := s.forecasts.ConfirmForecasts(ctx, tenantID, forecastIDs, created.ID); err != nil {
		return nil, err
	}

	if len(config.ApproverIDs) > 0 {
		approvers := config.ApproverIDs
		go func(r model.ResourceRequest) {
			if err := s.notificationSvc.NotifyRequestPending(context.Background(), r, approvers); err != nil {
				logger.Warn("Approver notification failed", zap.Error(err), zap.String("requestID", r.ID))
			}
		}(*created)
	}
	return created, nil
}

// notifyManagers mirrors the inventory check's manager fan-out for the
// requests an advance cycle placed.
func (s *AdvanceOrderService) notifyManagers(ctx context.Context, tenantID string, config *model.AgentConfiguration, placed []*model.ResourceRequest) {
	if len(placed) == 0 || len(config.ManagerIDs) == 0 {
		return
	}
	managers := config.ManagerIDs
	go func() {
		if err := s.notificationSvc.NotifyAdvanceOrders(context.Background(), tenantID, managers, placed); err != nil {
			logger.Warn("Manager notification failed", zap.Error(err), zap.String("tenantID", tenantID))
		}
	}()
}
