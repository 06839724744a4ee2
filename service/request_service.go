// service/request_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

// requestStore is the persistence surface shared by the request service and
// the automated engine services.
type requestStore interface {
	CreateRequest(ctx context.Context, request model.ResourceRequest) (*model.ResourceRequest, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (*model.ResourceRequest, error)
	SearchRequests(ctx context.Context, tenantID string, criteria model.RequestSearchCriteria) ([]*model.ResourceRequest, error)
	FindOpenBySupplier(ctx context.Context, tenantID, supplier string, sources []string) (*model.ResourceRequest, error)
	ListOpenRequests(ctx context.Context, tenantID string) ([]*model.ResourceRequest, error)
	MergeItems(ctx context.Context, request *model.ResourceRequest, items []model.RequestItem, actor, note string) (*model.ResourceRequest, error)
	Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error)
	UpdateDraft(ctx context.Context, request *model.ResourceRequest) (*model.ResourceRequest, error)
	SetFulfillment(ctx context.Context, tenantID, requestID string, fulfillment model.RequestFulfillment) error
}

// orderedResourceStore covers the resource-side effects of the order and
// delivery transitions.
type orderedResourceStore interface {
	MarkOrdered(ctx context.Context, tenantID string, resourceIDs []string) error
	AddReceivedQuantity(ctx context.Context, tenantID, resourceID string, quantity float64) error
}

type agentConfigStore interface {
	GetByTenant(ctx context.Context, tenantID string) (*model.AgentConfiguration, error)
}

// OrderDetails carries the supplier-facing fields of the order transition.
type OrderDetails struct {
	OrderNumber      string     `json:"order_number"`
	Supplier         string     `json:"supplier,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
}

// IRequestService defines the interface for replenishment request operations
type IRequestService interface {
	CreateRequest(ctx context.Context, request model.ResourceRequest, creatorID string) (*model.ResourceRequest, error)
	UpdateRequest(ctx context.Context, request model.ResourceRequest, updaterID string) (*model.ResourceRequest, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (*model.ResourceRequest, error)
	SearchRequests(ctx context.Context, tenantID string, criteria model.RequestSearchCriteria) ([]*model.ResourceRequest, error)
	Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error)
	MarkOrdered(ctx context.Context, tenantID, requestID, actor string, details OrderDetails) (*model.ResourceRequest, error)
	ReceiveDelivery(ctx context.Context, tenantID, requestID, actor string, received []model.ReceivedItem) (*model.ResourceRequest, error)
}

// RequestService handles the lifecycle of replenishment requests. All status
// changes, whether initiated over HTTP or by the automated engine, go through
// Transition so history and notifications stay consistent.
type RequestService struct {
	requests        requestStore
	resources       orderedResourceStore
	configs         agentConfigStore
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IRequestService = &RequestService{}

func NewRequestService(requests requestStore, resources orderedResourceStore, configs agentConfigStore, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *RequestService {
	return &RequestService{
		requests:        requests,
		resources:       resources,
		configs:         configs,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, request model.ResourceRequest, creatorID string) (*model.ResourceRequest, error) {
	if request.TenantID == "" {
		return nil, agent_errors.ErrTenantRequired
	}
	if err := s.validationUtil.ValidateRequest(request); err != nil {
		logger.Warn("Invalid request data", zap.Error(err), zap.String("tenantID", request.TenantID))
		return nil, agent_errors.ErrInvalidRequestData
	}

	if request.Source == "" {
		request.Source = model.SourceManual
	}
	if request.Priority == "" {
		request.Priority = model.PriorityMedium
	}
	request.RequestedBy = creatorID
	request.Status = model.RequestStatusDraft
	request.History = []model.RequestHistoryEntry{{
		Action:    "created",
		Actor:     creatorID,
		Timestamp: time.Now(),
		NewStatus: model.RequestStatusDraft,
	}}

	created, err := s.requests.CreateRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	metrics.RecordRequestCreated(created.Source)

	s.eventBus.Publish(ctx, util.EventRequestCreated, *created)
	go func() {
		if err := s.notificationSvc.NotifyRequestCreated(context.Background(), *created); err != nil {
			logger.Warn("Request creation notification failed", zap.Error(err), zap.String("requestID", created.ID))
		}
	}()

	return created, nil
}

func (s *RequestService) UpdateRequest(ctx context.Context, request model.ResourceRequest, updaterID string) (*model.ResourceRequest, error) {
	if err := s.validationUtil.ValidateRequest(request); err != nil {
		return nil, agent_errors.ErrInvalidRequestData
	}
	return s.requests.UpdateDraft(ctx, &request)
}

func (s *RequestService) GetRequest(ctx context.Context, tenantID, requestID string) (*model.ResourceRequest, error) {
	return s.requests.GetRequest(ctx, tenantID, requestID)
}

func (s *RequestService) SearchRequests(ctx context.Context, tenantID string, criteria model.RequestSearchCriteria) ([]*model.ResourceRequest, error) {
	return s.requests.SearchRequests(ctx, tenantID, criteria)
}

// Transition applies one state machine edge and its follow-on notifications.
func (s *RequestService) Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error) {
	request, err := s.requests.Transition(ctx, tenantID, requestID, newStatus, actor, note)
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition(newStatus)
	s.eventBus.Publish(ctx, util.EventRequestTransition, *request)

	switch newStatus {
	case model.RequestStatusPending:
		s.notifyApprovers(ctx, *request)
	case model.RequestStatusApproved, model.RequestStatusRejected:
		go func(r model.ResourceRequest) {
			if err := s.notificationSvc.NotifyRequestDecision(context.Background(), r); err != nil {
				logger.Warn("Decision notification failed", zap.Error(err), zap.String("requestID", r.ID))
			}
		}(*request)
	}

	return request, nil
}

// MarkOrdered moves an approved request to ordered, records the supplier
// order and flips every referenced resource to the ordered status. When no
// expected delivery is given it is derived from the tenant's lead time for
// the request priority.
func (s *RequestService) MarkOrdered(ctx context.Context, tenantID, requestID, actor string, details OrderDetails) (*model.ResourceRequest, error) {
	request, err := s.Transition(ctx, tenantID, requestID, model.RequestStatusOrdered, actor, details.OrderNumber)
	if err != nil {
		return nil, err
	}

	expected := details.ExpectedDelivery
	if expected == nil {
		days := model.DefaultLeadTimes[request.Priority]
		if config, cfgErr := s.configs.GetByTenant(ctx, tenantID); cfgErr == nil {
			days = config.LeadTimeDays(request.Priority)
		}
		t := time.Now().AddDate(0, 0, days)
		expected = &t
	}

	supplier := details.Supplier
	if supplier == "" {
		supplier = request.Supplier
	}

	fulfillment := model.RequestFulfillment{
		OrderNumber:      details.OrderNumber,
		Supplier:         supplier,
		ExpectedDelivery: expected,
	}
	if err := s.requests.SetFulfillment(ctx, tenantID, requestID, fulfillment); err != nil {
		return nil, err
	}
	request.Fulfillment = &fulfillment

	resourceIDs := make([]string, 0, len(request.Items))
	for _, item := range request.Items {
		resourceIDs = append(resourceIDs, item.ResourceID)
	}
	if err := s.resources.MarkOrdered(ctx, tenantID, resourceIDs); err != nil {
		logger.Error("Failed to flip resources to ordered", zap.Error(err), zap.String("requestID", requestID))
		return nil, err
	}

	return request, nil
}

// ReceiveDelivery books delivered quantities onto the resources and advances
// the request to received (complete) or partially_fulfilled. A complete
// delivery is carried straight through to fulfilled.
func (s *RequestService) ReceiveDelivery(ctx context.Context, tenantID, requestID, actor string, received []model.ReceivedItem) (*model.ResourceRequest, error) {
	request, err := s.requests.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestStatusOrdered && request.Status != model.RequestStatusPartiallyFulfilled {
		return nil, agent_errors.ErrInvalidTransition
	}

	for _, item := range received {
		if item.Quantity <= 0 {
			continue
		}
		if err := s.resources.AddReceivedQuantity(ctx, tenantID, item.ResourceID, item.Quantity); err != nil {
			logger.Error("Failed to book received quantity",
				zap.Error(err),
				zap.String("requestID", requestID),
				zap.String("resourceID", item.ResourceID))
			return nil, err
		}
	}

	now := time.Now()
	fulfillment := model.RequestFulfillment{}
	if request.Fulfillment != nil {
		fulfillment = *request.Fulfillment
	}
	fulfillment.ReceivedItems = append(fulfillment.ReceivedItems, received...)
	fulfillment.ActualDelivery = &now
	if err := s.requests.SetFulfillment(ctx, tenantID, requestID, fulfillment); err != nil {
		return nil, err
	}

	if deliveryComplete(request.Items, fulfillment.ReceivedItems) {
		if request.Status == model.RequestStatusOrdered {
			if _, err := s.Transition(ctx, tenantID, requestID, model.RequestStatusReceived, actor, ""); err != nil {
				return nil, err
			}
		}
		return s.Transition(ctx, tenantID, requestID, model.RequestStatusFulfilled, actor, "")
	}
	if request.Status == model.RequestStatusPartiallyFulfilled {
		// Still incomplete; nothing further to transition.
		return s.requests.GetRequest(ctx, tenantID, requestID)
	}
	return s.Transition(ctx, tenantID, requestID, model.RequestStatusPartiallyFulfilled, actor, "")
}

// deliveryComplete reports whether cumulative received quantities cover
// every requested line.
func deliveryComplete(items []model.RequestItem, received []model.ReceivedItem) bool {
	receivedByResource := make(map[string]float64, len(received))
	for _, r := range received {
		receivedByResource[r.ResourceID] += r.Quantity
	}
	for _, item := range items {
		if receivedByResource[item.ResourceID] < item.Quantity {
			return false
		}
	}
	return true
}

func (s *RequestService) notifyApprovers(ctx context.Context, request model.ResourceRequest) {
	config, err := s.configs.GetByTenant(ctx, request.TenantID)
	if err != nil || config == nil || len(config.ApproverIDs) == 0 {
		logger.Info("No approvers configured for pending request",
			zap.String("requestID", request.ID),
			zap.String("tenantID", request.TenantID))
		return
	}
	approvers := config.ApproverIDs
	go func() {
		if err := s.notificationSvc.NotifyRequestPending(context.Background(), request, approvers); err != nil {
			logger.Warn("Approver notification failed", zap.Error(err), zap.String("requestID", request.ID))
		}
	}()
}
