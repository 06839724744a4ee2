// model/summary.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventorySummary is the aggregate view served to dashboards.
type InventorySummary struct {
	TenantID           string            `json:"tenant_id"`
	GeneratedAt        time.Time         `json:"generated_at"`
	TotalResources     int               `json:"total_resources"`
	CountsByStatus     map[string]int    `json:"counts_by_status"`
	CountsByType       map[string]int    `json:"counts_by_type"`
	CriticalCount      int               `json:"critical_count"`
	WarningCount       int               `json:"warning_count"`
	HealthyCount       int               `json:"healthy_count"`
	TotalValue         decimal.Decimal   `json:"total_value"`
	RecentRequests     []ResourceRequest `json:"recent_requests"`
	UpcomingDeliveries []ResourceRequest `json:"upcoming_deliveries"`
}

// Suggestion kinds.
const (
	SuggestionOverstock    = "overstock"
	SuggestionSlowTurnover = "slow_turnover"
	SuggestionFastTurnover = "fast_turnover"
	SuggestionInactive     = "inactive"
	SuggestionConsolidate  = "consolidate_orders"
)

// OptimizationSuggestion is one actionable finding over a tenant's inventory.
type OptimizationSuggestion struct {
	Kind        string   `json:"kind"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
	RequestIDs  []string `json:"request_ids,omitempty"`
	Supplier    string   `json:"supplier,omitempty"`
	Detail      string   `json:"detail"`
}
