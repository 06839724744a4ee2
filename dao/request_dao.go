// dao/request_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stonefield/resourcing/audit"
	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/replenish"
)

type RequestDAO struct {
	DB           *gorm.DB
	AuditService audit.Service
}

func NewRequestDAO(db *gorm.DB, auditService audit.Service) *RequestDAO {
	return &RequestDAO{DB: db, AuditService: auditService}
}

// NewRequestNumber builds a human-readable request number.
func NewRequestNumber() string {
	return fmt.Sprintf("REQ-%d-%04d", time.Now().Unix(), rand.Intn(10000))
}

func (dao *RequestDAO) CreateRequest(ctx context.Context, request model.ResourceRequest) (*model.ResourceRequest, error) {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.RequestNumber == "" {
		request.RequestNumber = NewRequestNumber()
	}
	if request.Status == "" {
		request.Status = model.RequestStatusDraft
	}
	request.RecalculateTotal()

	if err := dao.DB.WithContext(ctx).Create(&request).Error; err != nil {
		logger.Error("Failed to create request", zap.Error(err), zap.String("tenantID", request.TenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}

	dao.recordAudit(ctx, audit.Entry{
		Timestamp: time.Now(),
		TenantID:  request.TenantID,
		Actor:     request.RequestedBy,
		Action:    "request_created",
		RequestID: request.ID,
		NewStatus: request.Status,
	})

	logger.Info("Request created",
		zap.String("requestID", request.ID),
		zap.String("requestNumber", request.RequestNumber),
		zap.String("tenantID", request.TenantID))
	return &request, nil
}

func (dao *RequestDAO) GetRequest(ctx context.Context, tenantID, requestID string) (*model.ResourceRequest, error) {
	var request model.ResourceRequest
	err := dao.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", requestID, tenantID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agent_errors.ErrRequestNotFound
		}
		logger.Error("Failed to get request", zap.Error(err), zap.String("requestID", requestID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return &request, nil
}

func (dao *RequestDAO) SearchRequests(ctx context.Context, tenantID string, criteria model.RequestSearchCriteria) ([]*model.ResourceRequest, error) {
	query := dao.DB.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Priority != "" {
		query = query.Where("priority = ?", criteria.Priority)
	}
	if criteria.Source != "" {
		query = query.Where("source = ?", criteria.Source)
	}
	if criteria.RequestedBy != "" {
		query = query.Where("requested_by = ?", criteria.RequestedBy)
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

	var requests []*model.ResourceRequest
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		logger.Error("Failed to search requests", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return requests, nil
}

// FindOpenBySupplier returns the tenant's open (draft or pending) request
// for a supplier within the given source merge domain, or nil when none
// exists. Reactive (manual/automated/schedule) and prediction requests are
// separate merge domains.
func (dao *RequestDAO) FindOpenBySupplier(ctx context.Context, tenantID, supplier string, sources []string) (*model.ResourceRequest, error) {
	var request model.ResourceRequest
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND supplier = ? AND status IN ? AND source IN ?",
			tenantID, supplier,
			[]string{model.RequestStatusDraft, model.RequestStatusPending},
			sources).
		Order("created_at").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Failed to look up open request", zap.Error(err),
			zap.String("tenantID", tenantID), zap.String("supplier", supplier))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return &request, nil
}

// ListOpenRequests returns all draft/pending requests of a tenant.
func (dao *RequestDAO) ListOpenRequests(ctx context.Context, tenantID string) ([]*model.ResourceRequest, error) {
	var requests []*model.ResourceRequest
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{model.RequestStatusDraft, model.RequestStatusPending}).
		Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list open requests", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return requests, nil
}

// MergeItems appends line items to an open request together with a single
// history entry summarizing the merge, in one update.
func (dao *RequestDAO) MergeItems(ctx context.Context, request *model.ResourceRequest, items []model.RequestItem, actor, note string) (*model.ResourceRequest, error) {
	if !request.IsOpen() {
		return nil, agent_errors.ErrRequestNotEditable
	}

	request.Items = append(request.Items, items...)
	request.History = append(request.History, model.RequestHistoryEntry{
		Action:    "items_merged",
		Actor:     actor,
		Timestamp: time.Now(),
		Note:      note,
	})
	request.RecalculateTotal()

	err := dao.DB.WithContext(ctx).
		Model(&model.ResourceRequest{}).
		Where("id = ? AND tenant_id = ?", request.ID, request.TenantID).
		Updates(map[string]interface{}{
			"items":      request.Items,
			"history":    request.History,
			"total_cost": request.TotalCost,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to merge items", zap.Error(err), zap.String("requestID", request.ID))
		return nil, agent_errors.ErrDatabaseOperation
	}

	dao.recordAudit(ctx, audit.Entry{
		Timestamp: time.Now(),
		TenantID:  request.TenantID,
		Actor:     actor,
		Action:    "items_merged",
		RequestID: request.ID,
	})

	logger.Info("Merged items into open request",
		zap.String("requestID", request.ID),
		zap.Int("mergedItems", len(items)))
	return request, nil
}

// Transition moves a request along the state machine in a single update:
// status change, approve/reject bookkeeping and exactly one appended history
// entry. Both the automated engine and HTTP callers go through here.
func (dao *RequestDAO) Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error) {
	request, err := dao.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}

	previous := request.Status
	if !replenish.CanTransition(previous, newStatus) {
		logger.Warn("Rejected status transition",
			zap.String("requestID", requestID),
			zap.String("from", previous),
			zap.String("to", newStatus))
		return nil, agent_errors.ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	switch newStatus {
	case model.RequestStatusApproved:
		updates["approved_by"] = actor
		updates["approved_at"] = now
		request.ApprovedBy = actor
		request.ApprovedAt = &now
	case model.RequestStatusRejected:
		updates["rejected_by"] = actor
		updates["rejected_at"] = now
		updates["rejection_reason"] = note
		request.RejectedBy = actor
		request.RejectedAt = &now
		request.RejectionReason = note
	}

	request.History = append(request.History, model.RequestHistoryEntry{
		Action:         replenish.ActionForTransition(newStatus),
		Actor:          actor,
		Timestamp:      now,
		Note:           note,
		PreviousStatus: previous,
		NewStatus:      newStatus,
	})
	updates["history"] = request.History

	result := dao.DB.WithContext(ctx).
		Model(&model.ResourceRequest{}).
		Where("id = ? AND tenant_id = ? AND status = ?", requestID, tenantID, previous).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to transition request", zap.Error(result.Error), zap.String("requestID", requestID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		// The status moved underneath us; treat as a conflicting transition.
		return nil, agent_errors.ErrRequestConflict
	}

	request.Status = newStatus

	dao.recordAudit(ctx, audit.Entry{
		Timestamp:      now,
		TenantID:       tenantID,
		Actor:          actor,
		Action:         replenish.ActionForTransition(newStatus),
		RequestID:      requestID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
	})

	logger.Info("Request transitioned",
		zap.String("requestID", requestID),
		zap.String("from", previous),
		zap.String("to", newStatus),
		zap.String("actor", actor))
	return request, nil
}

// UpdateDraft replaces the editable fields of a draft request.
func (dao *RequestDAO) UpdateDraft(ctx context.Context, request *model.ResourceRequest) (*model.ResourceRequest, error) {
	existing, err := dao.GetRequest(ctx, request.TenantID, request.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.RequestStatusDraft {
		return nil, agent_errors.ErrRequestNotEditable
	}

	request.RecalculateTotal()
	err = dao.DB.WithContext(ctx).
		Model(&model.ResourceRequest{}).
		Where("id = ? AND tenant_id = ?", request.ID, request.TenantID).
		Updates(map[string]interface{}{
			"title":       request.Title,
			"description": request.Description,
			"priority":    request.Priority,
			"items":       request.Items,
			"total_cost":  request.TotalCost,
			"needed_by":   request.NeededBy,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to update draft", zap.Error(err), zap.String("requestID", request.ID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return dao.GetRequest(ctx, request.TenantID, request.ID)
}

// SetFulfillment stores the ordering/delivery record on a request.
func (dao *RequestDAO) SetFulfillment(ctx context.Context, tenantID, requestID string, fulfillment model.RequestFulfillment) error {
	err := dao.DB.WithContext(ctx).
		Model(&model.ResourceRequest{}).
		Where("id = ? AND tenant_id = ?", requestID, tenantID).
		Updates(map[string]interface{}{
			"fulfillment": &fulfillment,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to set fulfillment", zap.Error(err), zap.String("requestID", requestID))
		return agent_errors.ErrDatabaseOperation
	}
	return nil
}

// RecentRequests returns the newest requests of a tenant for the summary.
func (dao *RequestDAO) RecentRequests(ctx context.Context, tenantID string, limit int) ([]*model.ResourceRequest, error) {
	if limit < 1 {
		limit = 5
	}
	var requests []*model.ResourceRequest
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list recent requests", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return requests, nil
}

// UpcomingDeliveries returns ordered requests with an expected delivery in
// the future, soonest first.
func (dao *RequestDAO) UpcomingDeliveries(ctx context.Context, tenantID string, limit int) ([]*model.ResourceRequest, error) {
	if limit < 1 {
		limit = 5
	}
	var requests []*model.ResourceRequest
	err := dao.DB.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{model.RequestStatusOrdered, model.RequestStatusPartiallyFulfilled}).
		Order("needed_by").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		logger.Error("Failed to list upcoming deliveries", zap.Error(err), zap.String("tenantID", tenantID))
		return nil, agent_errors.ErrDatabaseOperation
	}
	return requests, nil
}

// recordAudit ships the entry to the audit trail; audit problems never fail
// the write they describe.
func (dao *RequestDAO) recordAudit(ctx context.Context, entry audit.Entry) {
	if dao.AuditService == nil {
		return
	}
	if err := dao.AuditService.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record audit entry", zap.Error(err), zap.String("requestID", entry.RequestID))
	}
}
