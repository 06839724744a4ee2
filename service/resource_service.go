// service/resource_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

// resourceStore is the persistence surface the resource service needs.
type resourceStore interface {
	CreateResource(ctx context.Context, resource model.ResourceItem) (string, error)
	UpdateResource(ctx context.Context, resource model.ResourceItem) (*model.ResourceItem, error)
	GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error)
	DeleteResource(ctx context.Context, tenantID, resourceID string) error
	SearchResources(ctx context.Context, tenantID string, criteria model.ResourceSearchCriteria) ([]*model.ResourceItem, error)
	ApplyUsage(ctx context.Context, tenantID, resourceID string, quantity float64) error
}

type usageStore interface {
	RecordUsage(ctx context.Context, usage model.ResourceUsage) (string, error)
	ListUsageSince(ctx context.Context, tenantID, resourceID string, since time.Time) ([]*model.ResourceUsage, error)
}

// IResourceService defines the interface for resource operations
type IResourceService interface {
	CreateResource(ctx context.Context, resource model.ResourceItem, creatorID string) (*model.ResourceItem, error)
	UpdateResource(ctx context.Context, resource model.ResourceItem, updaterID string) (*model.ResourceItem, error)
	DeleteResource(ctx context.Context, tenantID, resourceID string, deleterID string) error
	GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error)
	SearchResources(ctx context.Context, tenantID string, criteria model.ResourceSearchCriteria) ([]*model.ResourceItem, error)
	RecordUsage(ctx context.Context, usage model.ResourceUsage, recorderID string) (*model.ResourceItem, error)
	ListUsage(ctx context.Context, tenantID, resourceID string, since time.Time) ([]*model.ResourceUsage, error)
}

// ResourceService handles business logic for resource operations
type ResourceService struct {
	resources       resourceStore
	usage           usageStore
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IResourceService = &ResourceService{}

// NewResourceService creates a new instance of ResourceService
func NewResourceService(resources resourceStore, usage usageStore, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *ResourceService {
	service := &ResourceService{
		resources:       resources,
		usage:           usage,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe(util.EventResourceDepleted, service.handleResourceDepleted)

	return service
}

func (s *ResourceService) handleResourceDepleted(ctx context.Context, event util.Event) error {
	resource, ok := event.Payload.(model.ResourceItem)
	if !ok {
		return nil
	}
	logger.Info("Resource depleted event received",
		zap.String("resourceID", resource.ID),
		zap.String("tenantID", resource.TenantID),
		zap.String("name", resource.Name))
	return nil
}

func (s *ResourceService) CreateResource(ctx context.Context, resource model.ResourceItem, creatorID string) (*model.ResourceItem, error) {
	if resource.TenantID == "" {
		return nil, agent_errors.ErrTenantRequired
	}
	if err := s.validationUtil.ValidateResource(resource); err != nil {
		logger.Warn("Invalid resource data", zap.Error(err), zap.String("tenantID", resource.TenantID))
		return nil, agent_errors.ErrInvalidResourceData
	}

	resource.CreatedBy = creatorID
	resource.UpdatedBy = creatorID

	resourceID, err := s.resources.CreateResource(ctx, resource)
	if err != nil {
		return nil, err
	}

	created, err := s.resources.GetResource(ctx, resource.TenantID, resourceID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetResource(ctx, *created); err != nil {
		logger.Warn("Failed to cache created resource", zap.Error(err), zap.String("resourceID", resourceID))
	}

	logger.Info("Resource created",
		zap.String("resourceID", resourceID),
		zap.String("tenantID", resource.TenantID),
		zap.String("createdBy", creatorID))
	return created, nil
}

func (s *ResourceService) UpdateResource(ctx context.Context, resource model.ResourceItem, updaterID string) (*model.ResourceItem, error) {
	if err := s.validationUtil.ValidateResource(resource); err != nil {
		return nil, agent_errors.ErrInvalidResourceData
	}

	existing, err := s.resources.GetResource(ctx, resource.TenantID, resource.ID)
	if err != nil {
		return nil, err
	}

	resource.CreatedBy = existing.CreatedBy
	resource.CreatedAt = existing.CreatedAt
	resource.UpdatedBy = updaterID

	updated, err := s.resources.UpdateResource(ctx, resource)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetResource(ctx, *updated); err != nil {
		logger.Warn("Failed to cache updated resource", zap.Error(err), zap.String("resourceID", resource.ID))
	}

	return updated, nil
}

func (s *ResourceService) DeleteResource(ctx context.Context, tenantID, resourceID string, deleterID string) error {
	if err := s.resources.DeleteResource(ctx, tenantID, resourceID); err != nil {
		return err
	}

	if err := s.cacheService.DeleteResource(ctx, resourceID); err != nil {
		logger.Warn("Failed to evict deleted resource from cache", zap.Error(err), zap.String("resourceID", resourceID))
	}

	logger.Info("Resource deleted",
		zap.String("resourceID", resourceID),
		zap.String("tenantID", tenantID),
		zap.String("deletedBy", deleterID))
	return nil
}

func (s *ResourceService) GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error) {
	if cached, err := s.cacheService.GetResource(ctx, resourceID); err == nil && cached != nil && cached.TenantID == tenantID {
		return cached, nil
	}

	resource, err := s.resources.GetResource(ctx, tenantID, resourceID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetResource(ctx, *resource); err != nil {
		logger.Warn("Failed to cache resource", zap.Error(err), zap.String("resourceID", resourceID))
	}
	return resource, nil
}

func (s *ResourceService) SearchResources(ctx context.Context, tenantID string, criteria model.ResourceSearchCriteria) ([]*model.ResourceItem, error) {
	return s.resources.SearchResources(ctx, tenantID, criteria)
}

// RecordUsage appends a consumption fact and applies the decrement to the
// item's on-hand quantity, clamping at zero. Returns the resource as it
// stands after the decrement.
func (s *ResourceService) RecordUsage(ctx context.Context, usage model.ResourceUsage, recorderID string) (*model.ResourceItem, error) {
	if usage.TenantID == "" {
		return nil, agent_errors.ErrTenantRequired
	}
	if err := s.validationUtil.ValidateUsage(usage); err != nil {
		logger.Warn("Invalid usage data", zap.Error(err), zap.String("tenantID", usage.TenantID))
		return nil, agent_errors.ErrInvalidUsageData
	}

	if usage.ID == "" {
		usage.ID = uuid.New().String()
	}
	usage.RecordedBy = recorderID

	if _, err := s.usage.RecordUsage(ctx, usage); err != nil {
		return nil, err
	}

	if err := s.resources.ApplyUsage(ctx, usage.TenantID, usage.ResourceID, usage.Quantity); err != nil {
		return nil, err
	}

	resource, err := s.resources.GetResource(ctx, usage.TenantID, usage.ResourceID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetResource(ctx, *resource); err != nil {
		logger.Warn("Failed to refresh cached resource", zap.Error(err), zap.String("resourceID", resource.ID))
	}

	if resource.Status == model.ResourceStatusDepleted {
		s.eventBus.Publish(ctx, util.EventResourceDepleted, *resource)
	}

	return resource, nil
}

func (s *ResourceService) ListUsage(ctx context.Context, tenantID, resourceID string, since time.Time) ([]*model.ResourceUsage, error) {
	return s.usage.ListUsageSince(ctx, tenantID, resourceID, since)
}
