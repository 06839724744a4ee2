// model/resource.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Resource item types.
const (
	ResourceTypeEquipment  = "equipment"
	ResourceTypeMaterial   = "material"
	ResourceTypeTool       = "tool"
	ResourceTypeConsumable = "consumable"
	ResourceTypeService    = "service"
	ResourceTypeSoftware   = "software"
	ResourceTypeLicense    = "license"
	ResourceTypeOther      = "other"
)

// Resource item statuses.
const (
	ResourceStatusAvailable   = "available"
	ResourceStatusInUse       = "in_use"
	ResourceStatusMaintenance = "maintenance"
	ResourceStatusDepleted    = "depleted"
	ResourceStatusOrdered     = "ordered"
	ResourceStatusReserved    = "reserved"
	ResourceStatusExpired     = "expired"
	ResourceStatusDisposed    = "disposed"
)

// UnknownSupplier groups resources that have no supplier configured.
const UnknownSupplier = "unknown"

// ResourceItem is a trackable unit a tenant consumes or stocks. Quantity is
// only adjusted by usage recording or fulfillment receipt; status "ordered"
// means at least one open request references the item.
type ResourceItem struct {
	ID              string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        string          `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	Name            string          `json:"name" gorm:"type:varchar(255);not null"`
	Description     string          `json:"description,omitempty" gorm:"type:text"`
	Type            string          `json:"type" gorm:"type:varchar(32);not null"`
	Status          string          `json:"status" gorm:"type:varchar(32);index;not null"`
	CurrentQuantity float64         `json:"current_quantity"`
	MinQuantity     *float64        `json:"min_quantity,omitempty"`
	OptimalQuantity *float64        `json:"optimal_quantity,omitempty"`
	MaxQuantity     *float64        `json:"max_quantity,omitempty"`
	Unit            string          `json:"unit,omitempty" gorm:"type:varchar(32)"`
	UnitCost        decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,4)"`
	Supplier        string          `json:"supplier,omitempty" gorm:"type:varchar(255);index"`
	Location        string          `json:"location,omitempty" gorm:"type:varchar(255)"`
	CreatedBy       string          `json:"created_by,omitempty" gorm:"type:varchar(36)"`
	UpdatedBy       string          `json:"updated_by,omitempty" gorm:"type:varchar(36)"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// BelowMinimum reports whether the item has a reorder threshold and sits at
// or under it.
func (r *ResourceItem) BelowMinimum() bool {
	return r.MinQuantity != nil && r.CurrentQuantity <= *r.MinQuantity
}

// SupplierOrUnknown returns the supplier grouping key for the item.
func (r *ResourceItem) SupplierOrUnknown() string {
	if r.Supplier == "" {
		return UnknownSupplier
	}
	return r.Supplier
}

// ResourceUsage is an immutable consumption fact. Rows are append-only and
// form the time series the forecast calculator consumes.
type ResourceUsage struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	ResourceID string    `json:"resource_id" gorm:"type:varchar(36);index;not null"`
	UsageDate  time.Time `json:"usage_date" gorm:"index;not null"`
	Quantity   float64   `json:"quantity" gorm:"not null"`
	ProjectID  string    `json:"project_id,omitempty" gorm:"type:varchar(36)"`
	TaskID     string    `json:"task_id,omitempty" gorm:"type:varchar(36)"`
	Notes      string    `json:"notes,omitempty" gorm:"type:text"`
	RecordedBy string    `json:"recorded_by,omitempty" gorm:"type:varchar(36)"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResourceSearchCriteria filters resource listings.
type ResourceSearchCriteria struct {
	Name          string     `json:"name,omitempty"`
	Type          string     `json:"type,omitempty"`
	Status        string     `json:"status,omitempty"`
	Supplier      string     `json:"supplier,omitempty"`
	BelowMin      bool       `json:"below_min,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
