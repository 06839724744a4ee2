// dao/resource_dao.go
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

type ResourceDAO struct {
	DB *gorm.DB
}

func NewResourceDAO(db *gorm.DB) *ResourceDAO {
	return &ResourceDAO{DB: db}
}

func (dao *ResourceDAO) CreateResource(ctx context.Context, resource model.ResourceItem) (string, error) {
	if resource.ID == "" {
		resource.ID = uuid.New().String()
	}
	if resource.Status == "" {
		resource.Status = model.ResourceStatusAvailable
	}

	if err := dao.DB.WithContext(ctx).Create(&resource).Error; err != nil {
		logger.Error("Failed to create resource", zap.Error(err), zap.String("tenantID", resource.TenantID))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", agent_errors.ErrResourceConflict
		}
		return "", agent_errors.ErrDatabaseOperation
	}

	logger.Info("Resource created", zap.String("resourceID", resource.ID), zap.String("tenantID", resource.TenantID))
	return resource.ID, nil
}

func (dao *ResourceDAO) UpdateResource(ctx context.Context, resource model.ResourceItem) (*model.ResourceItem, error) {
	result := dao.DB.WithContext(ctx).
		Model(&model.ResourceItem{}).
		Where("id = ? AND tenant_id = ?", resource.ID, resource.TenantID).
		Updates(&resource)
	if result.Error != nil {
		logger.Error("Failed to update resource", zap.Error(result.Error), zap.String("resourceID", resource.ID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return nil, agent_errors.ErrResourceNotFound
	}
	return dao.GetResource(ctx, resource.TenantID, resource.ID)
}

func (dao *ResourceDAO) GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error) {
	var resource model.ResourceItem
	err := dao.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", resourceID, tenantID).
		First(&resource).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agent_errors.ErrResourceNotFound
		}
		logger.Error("Failed to get resource", zap.Error(err), zap.String("resourceID", resourceID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return &resource, nil
}

// DeleteResource soft-deletes; rows stay queryable via Unscoped for history.
func (dao *ResourceDAO) DeleteResource(ctx context.Context, tenantID, resourceID string) error {
	result := dao.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", resourceID, tenantID).
		Delete(&model.ResourceItem{})
	if result.Error != nil {
		logger.Error("Failed to delete resource", zap.Error(result.Error), zap.String("resourceID", resourceID))
		return agent_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return agent_errors.ErrResourceNotFound
	}
	logger.Info("Resource deleted", zap.String("resourceID", resourceID), zap.String("tenantID", tenantID))
	return nil
}

func (dao *ResourceDAO) SearchResources(ctx context.Context, tenantID string, criteria model.ResourceSearchCriteria) ([]*model.ResourceItem, error) {
	query := dao.DB.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if criteria.Name != "" {
		query = query.Where("name ILIKE ?", "%"+criteria.Name+"%")
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Supplier != "" {
		query = query.Where("supplier = ?", criteria.Supplier)
	}
	if criteria.BelowMin {
		query = query.Where("min_quantity IS NOT NULL AND current_quantity <= min_quantity")
	}
	if criteria.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *criteria.CreatedAfter)
	}
	if criteria.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *criteria.CreatedBefore)
	}

	limit := criteria.Limit
	if limit < 1 {
		limit = 50
	}
	offset := criteria.Offset
	if offset < 0 {
		offset = 0
	}

	var resources []*model.ResourceItem
	if err := query.Order("name").Limit(limit).Offset(offset).Find(&resources).Error; err != nil {
		logger.Error("Failed to search resources", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return resources, nil
}

// ListActiveResources returns all of a tenant's non-deleted, non-disposed
// resources, the working set of an inventory check.
func (dao *ResourceDAO) ListActiveResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error) {
	var resources []*model.ResourceItem
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND status <> ?", tenantID, model.ResourceStatusDisposed).
		Find(&resources).Error
	if err != nil {
		logger.Error("Failed to list active resources", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return resources, nil
}

// ListResources returns every non-deleted resource of a tenant, disposed
// ones included, for summary aggregation.
func (dao *ResourceDAO) ListResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error) {
	var resources []*model.ResourceItem
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&resources).Error
	if err != nil {
		logger.Error("Failed to list resources", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return resources, nil
}

// MarkOrdered flips the given resources to status "ordered". Used after an
// auto-approved request covers them.
func (dao *ResourceDAO) MarkOrdered(ctx context.Context, tenantID string, resourceIDs []string) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	err := dao.DB.WithContext(ctx).
		Model(&model.ResourceItem{}).
		Where("tenant_id = ? AND id IN ?", tenantID, resourceIDs).
		Updates(map[string]interface{}{"status": model.ResourceStatusOrdered, "updated_at": time.Now()}).Error
	if err != nil {
		logger.Error("Failed to mark resources ordered", zap.Error(err), zap.String("tenantID", tenantID))
		return agent_errors.ErrDatabaseOperation
	}
	return nil
}

// ApplyUsage atomically decrements the resource quantity by the consumed
// amount and flips the status to depleted when stock runs out. The decrement
// is a single UPDATE so concurrent usage recordings never race on the read
// value.
func (dao *ResourceDAO) ApplyUsage(ctx context.Context, tenantID, resourceID string, quantity float64) error {
	result := dao.DB.WithContext(ctx).
		Model(&model.ResourceItem{}).
		Where("id = ? AND tenant_id = ?", resourceID, tenantID).
		Update("current_quantity", gorm.Expr("GREATEST(current_quantity - ?, 0)", quantity))
	if result.Error != nil {
		logger.Error("Failed to apply usage", zap.Error(result.Error), zap.String("resourceID", resourceID))
		return agent_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return agent_errors.ErrResourceNotFound
	}

	err := dao.DB.WithContext(ctx).
		Model(&model.ResourceItem{}).
		Where("id = ? AND tenant_id = ? AND current_quantity <= 0 AND status NOT IN ?",
			resourceID, tenantID, []string{model.ResourceStatusOrdered, model.ResourceStatusDisposed}).
		Update("status", model.ResourceStatusDepleted).Error
	if err != nil {
		logger.Error("Failed to flip depleted status", zap.Error(err), zap.String("resourceID", resourceID))
		return agent_errors.ErrDatabaseOperation
	}
	return nil
}

// AddReceivedQuantity credits delivered stock back onto the resource and
// restores availability.
func (dao *ResourceDAO) AddReceivedQuantity(ctx context.Context, tenantID, resourceID string, quantity float64) error {
	result := dao.DB.WithContext(ctx).
		Model(&model.ResourceItem{}).
		Where("id = ? AND tenant_id = ?", resourceID, tenantID).
		Updates(map[string]interface{}{
			"current_quantity": gorm.Expr("current_quantity + ?", quantity),
			"status":           model.ResourceStatusAvailable,
		})
	if result.Error != nil {
		logger.Error("Failed to credit received quantity", zap.Error(result.Error), zap.String("resourceID", resourceID))
		return agent_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return agent_errors.ErrResourceNotFound
	}
	return nil
}
