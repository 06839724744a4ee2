// service/monitor_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stonefield/resourcing/access"
	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/replenish"
	"github.com/stonefield/resourcing/scheduler"
	"github.com/stonefield/resourcing/util"
)

// SystemActor is recorded on history entries written by the engine itself.
const SystemActor = "agent"

// reactiveSources form one merge domain: a low-stock run merges into open
// requests from any of them. Prediction requests live in their own domain.
var reactiveSources = []string{model.SourceManual, model.SourceAutomated, model.SourceSchedule}

type featureGate interface {
	HasAgentAccess(ctx context.Context, tenantID, feature string) bool
}

type monitorResourceStore interface {
	ListActiveResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error)
	MarkOrdered(ctx context.Context, tenantID string, resourceIDs []string) error
}

type transitioner interface {
	Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error)
}

// IMonitorService defines the interface for the inventory check job
type IMonitorService interface {
	RunInventoryCheck(ctx context.Context, tenantID string) error
}

// MonitorService scans a tenant's inventory for items at or under their
// reorder thresholds and turns them into replenishment requests, one per
// supplier group.
type MonitorService struct {
	gate            featureGate
	configs         agentConfigStore
	resources       monitorResourceStore
	requests        requestStore
	transitions     transitioner
	notificationSvc *util.NotificationService
}

var _ IMonitorService = &MonitorService{}

func NewMonitorService(gate featureGate, configs agentConfigStore, resources monitorResourceStore, requests requestStore, transitions transitioner, notificationSvc *util.NotificationService) *MonitorService {
	return &MonitorService{
		gate:            gate,
		configs:         configs,
		resources:       resources,
		requests:        requests,
		transitions:     transitions,
		notificationSvc: notificationSvc,
	}
}

// RunInventoryCheck executes one low-stock scan for a tenant. A missing or
// disabled configuration ends the run quietly; a failure in one supplier
// group is logged and the remaining groups still run.
func (s *MonitorService) RunInventoryCheck(ctx context.Context, tenantID string) error {
	defer metrics.TrackJobRun(scheduler.KindInventoryCheck)(time.Now())

	if !s.gate.HasAgentAccess(ctx, tenantID, access.FeatureInventoryCheck) {
		return nil
	}
	config, err := s.configs.GetByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, agent_errors.ErrConfigNotFound) {
		metrics.RecordJobFailure(scheduler.KindInventoryCheck)
		logger.Error("Failed to load agent configuration", zap.Error(err), zap.String("tenantID", tenantID))
		return err
	}
	if config == nil || !config.Enabled {
		logger.Info("Inventory check skipped, agent not configured", zap.String("tenantID", tenantID))
		return nil
	}

	resources, err := s.resources.ListActiveResources(ctx, tenantID)
	if err != nil {
		metrics.RecordJobFailure(scheduler.KindInventoryCheck)
		return err
	}

	var low []*model.ResourceItem
	for _, resource := range resources {
		if resource.Status == model.ResourceStatusOrdered {
			continue
		}
		if resource.BelowMinimum() {
			low = append(low, resource)
		}
	}
	if len(low) == 0 {
		logger.Info("Inventory check found no low resources", zap.String("tenantID", tenantID))
		return nil
	}

	logger.Info("Inventory check found low resources",
		zap.String("tenantID", tenantID),
		zap.Int("count", len(low)))

	groups := replenish.GroupBySupplier(low)
	for supplier, items := range groups {
		if err := s.processSupplierGroup(ctx, tenantID, supplier, items, config); err != nil {
			metrics.RecordJobFailure(scheduler.KindInventoryCheck)
			logger.Error("Supplier group failed",
				zap.Error(err),
				zap.String("tenantID", tenantID),
				zap.String("supplier", supplier))
		}
	}

	s.notifyManagers(ctx, tenantID, config, low)
	return nil
}

// processSupplierGroup merges the group's items into an existing open
// request or creates a new one.
func (s *MonitorService) processSupplierGroup(ctx context.Context, tenantID, supplier string, items []*model.ResourceItem, config *model.AgentConfiguration) error {
	open, err := s.requests.FindOpenBySupplier(ctx, tenantID, supplier, reactiveSources)
	if err != nil {
		return err
	}

	if open != nil {
		missing := replenish.MissingFrom(open, items)
		if len(missing) == 0 {
			return nil
		}
		lineItems := make([]model.RequestItem, 0, len(missing))
		for _, item := range missing {
			lineItems = append(lineItems, replenish.LineItem(item, replenish.OrderQuantity(item)))
		}
		note := fmt.Sprintf("%d low-stock items added by inventory check", len(lineItems))
		if _, err := s.requests.MergeItems(ctx, open, lineItems, SystemActor, note); err != nil {
			return err
		}
		metrics.RecordRequestMerged()
		return nil
	}

	request, err := s.createGroupRequest(ctx, tenantID, supplier, items, config)
	if err != nil {
		return err
	}

	if config.AutoApprove && s.gate.HasAgentAccess(ctx, tenantID, access.FeatureAutoApprove) {
		return s.autoApprove(ctx, tenantID, request, items)
	}

	s.notifyPending(ctx, *request, config.ApproverIDs)
	return nil
}

func (s *MonitorService) createGroupRequest(ctx context.Context, tenantID, supplier string, items []*model.ResourceItem, config *model.AgentConfiguration) (*model.ResourceRequest, error) {
	priority := replenish.GroupPriority(items)
	neededBy := time.Now().AddDate(0, 0, config.LeadTimeDays(priority))

	lineItems := make([]model.RequestItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, replenish.LineItem(item, replenish.OrderQuantity(item)))
	}

	request := model.ResourceRequest{
		TenantID:    tenantID,
		RequestedBy: SystemActor,
		Status:      model.RequestStatusPending,
		Priority:    priority,
		Source:      model.SourceAutomated,
		Supplier:    supplier,
		Title:       fmt.Sprintf("Replenishment for supplier %s", supplier),
		Description: fmt.Sprintf("%d items at or below minimum stock", len(items)),
		Items:       lineItems,
		NeededBy:    &neededBy,
		Metadata:    map[string]string{model.MetaGeneratedBy: SystemActor, model.MetaSupplier: supplier},
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
	metrics.RecordRequestCreated(model.SourceAutomated)

	logger.Info("Replenishment request created by inventory check",
		zap.String("requestID", created.ID),
		zap.String("tenantID", tenantID),
		zap.String("supplier", supplier),
		zap.String("priority", priority),
		zap.Int("items", len(lineItems)))
	return created, nil
}

// autoApprove moves a freshly created request to approved and flips every
// backing resource to ordered.
func (s *MonitorService) autoApprove(ctx context.Context, tenantID string, request *model.ResourceRequest, items []*model.ResourceItem) error {
	approved, err := s.transitions.Transition(ctx, tenantID, request.ID, model.RequestStatusApproved, SystemActor, "auto-approved")
	if err != nil {
		return err
	}

	resourceIDs := make([]string, 0, len(items))
	for _, item := range items {
		resourceIDs = append(resourceIDs, item.ID)
	}
	if err := s.resources.MarkOrdered(ctx, tenantID, resourceIDs); err != nil {
		return err
	}

	logger.Info("Request auto-approved",
		zap.String("requestID", approved.ID),
		zap.String("tenantID", tenantID),
		zap.Int("resourcesOrdered", len(resourceIDs)))
	return nil
}

func (s *MonitorService) notifyPending(ctx context.Context, request model.ResourceRequest, approverIDs []string) {
	if len(approverIDs) == 0 {
		return
	}
	go func() {
		if err := s.notificationSvc.NotifyRequestPending(context.Background(), request, approverIDs); err != nil {
			logger.Warn("Approver notification failed", zap.Error(err), zap.String("requestID", request.ID))
		}
	}()
}

func (s *MonitorService) notifyManagers(ctx context.Context, tenantID string, config *model.AgentConfiguration, low []*model.ResourceItem) {
	if len(config.ManagerIDs) == 0 {
		return
	}
	names := make([]string, 0, len(low))
	for _, resource := range low {
		names = append(names, resource.Name)
	}
	go func() {
		if err := s.notificationSvc.NotifyLowStock(context.Background(), tenantID, config.ManagerIDs, names); err != nil {
			logger.Warn("Low stock notification failed", zap.Error(err), zap.String("tenantID", tenantID))
		}
	}()
}
