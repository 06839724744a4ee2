// model/request.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Request statuses.
const (
	RequestStatusDraft              = "draft"
	RequestStatusPending            = "pending"
	RequestStatusApproved           = "approved"
	RequestStatusRejected           = "rejected"
	RequestStatusOrdered            = "ordered"
	RequestStatusReceived           = "received"
	RequestStatusPartiallyFulfilled = "partially_fulfilled"
	RequestStatusFulfilled          = "fulfilled"
	RequestStatusCanceled           = "canceled"
)

// Request priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Request sources.
const (
	SourceManual     = "manual"
	SourceAutomated  = "automated"
	SourceSchedule   = "schedule"
	SourcePrediction = "prediction"
)

// Recognized request metadata keys. Metadata is a closed map, not an open
// bag; code only reads and writes these keys.
const (
	MetaSupplier          = "supplier"
	MetaGeneratedBy       = "generatedBy"
	MetaForecastBased     = "forecastBased"
	MetaConfidenceAverage = "confidenceAverage"
)

// RequestItem is one line of a replenishment request.
type RequestItem struct {
	ResourceID string          `json:"resource_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Quantity   float64         `json:"quantity"`
	Unit       string          `json:"unit,omitempty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Notes      string          `json:"notes,omitempty"`
}

// RequestHistoryEntry is one append-only audit line on a request. Every
// status transition appends exactly one entry.
type RequestHistoryEntry struct {
	Action         string    `json:"action"`
	Actor          string    `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
	Note           string    `json:"note,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
}

// ReceivedItem records the condition of one delivered line.
type ReceivedItem struct {
	ResourceID string  `json:"resource_id"`
	Quantity   float64 `json:"quantity"`
	Condition  string  `json:"condition,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// RequestFulfillment captures the ordering and delivery side of a request.
type RequestFulfillment struct {
	OrderNumber      string         `json:"order_number,omitempty"`
	Supplier         string         `json:"supplier,omitempty"`
	ExpectedDelivery *time.Time     `json:"expected_delivery,omitempty"`
	ActualDelivery   *time.Time     `json:"actual_delivery,omitempty"`
	ReceivedItems    []ReceivedItem `json:"received_items,omitempty"`
}

// ResourceRequest is the unit of replenishment work flowing through the
// approval state machine.
type ResourceRequest struct {
	ID              string                `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        string                `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	RequestNumber   string                `json:"request_number" gorm:"type:varchar(64);uniqueIndex;not null"`
	RequestedBy     string                `json:"requested_by" gorm:"type:varchar(36)"`
	Status          string                `json:"status" gorm:"type:varchar(32);index;not null"`
	Priority        string                `json:"priority" gorm:"type:varchar(16);index;not null"`
	Source          string                `json:"source" gorm:"type:varchar(16);index;not null"`
	Supplier        string                `json:"supplier,omitempty" gorm:"type:varchar(255);index"`
	Title           string                `json:"title,omitempty" gorm:"type:varchar(255)"`
	Description     string                `json:"description,omitempty" gorm:"type:text"`
	Items           []RequestItem         `json:"items" gorm:"serializer:json"`
	TotalCost       decimal.Decimal       `json:"total_cost" gorm:"type:numeric(14,4)"`
	NeededBy        *time.Time            `json:"needed_by,omitempty"`
	ApprovedBy      string                `json:"approved_by,omitempty" gorm:"type:varchar(36)"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	RejectedBy      string                `json:"rejected_by,omitempty" gorm:"type:varchar(36)"`
	RejectedAt      *time.Time            `json:"rejected_at,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty" gorm:"type:text"`
	Fulfillment     *RequestFulfillment   `json:"fulfillment,omitempty" gorm:"serializer:json"`
	History         []RequestHistoryEntry `json:"history" gorm:"serializer:json"`
	Metadata        map[string]string     `json:"metadata,omitempty" gorm:"serializer:json"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	DeletedAt       gorm.DeletedAt        `json:"deleted_at,omitempty" gorm:"index"`
}

// IsOpen reports whether the request is still in a pre-decision state in
// which new line items may be merged into it.
func (r *ResourceRequest) IsOpen() bool {
	return r.Status == RequestStatusDraft || r.Status == RequestStatusPending
}

// HasResource reports whether any line item references the given resource.
func (r *ResourceRequest) HasResource(resourceID string) bool {
	for _, item := range r.Items {
		if item.ResourceID == resourceID {
			return true
		}
	}
	return false
}

// RecalculateTotal recomputes TotalCost from the line items.
func (r *ResourceRequest) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.TotalCost)
	}
	r.TotalCost = total
}

// RequestSearchCriteria filters request listings.
type RequestSearchCriteria struct {
	Status        string     `json:"status,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Source        string     `json:"source,omitempty"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
