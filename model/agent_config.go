// model/agent_config.go
package model

import (
	"time"
)

// Default lead times in days, keyed by request priority.
var DefaultLeadTimes = map[string]int{
	PriorityUrgent: 1,
	PriorityHigh:   3,
	PriorityMedium: 7,
	PriorityLow:    14,
}

// AgentConfiguration holds the per-tenant settings of the replenishment
// agent. Read by every scheduled run; updates must reschedule the tenant's
// jobs before the next tick.
type AgentConfiguration struct {
	ID                      string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID                string         `json:"tenant_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Enabled                 bool           `json:"enabled" gorm:"default:false"`
	InventoryCheckFrequency int            `json:"inventory_check_frequency" gorm:"default:24"` // hours
	ForecastFrequency       int            `json:"forecast_frequency" gorm:"default:168"`       // hours
	AutoApprove             bool           `json:"auto_approve" gorm:"default:false"`
	ApproverIDs             []string       `json:"approver_ids" gorm:"serializer:json"`
	ManagerIDs              []string       `json:"manager_ids" gorm:"serializer:json"`
	LeadTimes               map[string]int `json:"lead_times" gorm:"serializer:json"`
	AdvanceOrderEnabled     bool           `json:"advance_order_enabled" gorm:"default:false"`
	AdvanceOrderDays        int            `json:"advance_order_days" gorm:"default:30"`
	MinConfidence           float64        `json:"min_confidence" gorm:"default:0.7"`
	UpdatedBy               string         `json:"updated_by,omitempty" gorm:"type:varchar(36)"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// LeadTimeDays returns the configured lead time for a priority, falling back
// to the defaults when unset.
func (c *AgentConfiguration) LeadTimeDays(priority string) int {
	if c.LeadTimes != nil {
		if days, ok := c.LeadTimes[priority]; ok && days > 0 {
			return days
		}
	}
	if days, ok := DefaultLeadTimes[priority]; ok {
		return days
	}
	return DefaultLeadTimes[PriorityMedium]
}
