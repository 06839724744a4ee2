// service/summary_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stonefield/resourcing/model"
)

// Bucket and suggestion thresholds.
const (
	criticalFraction  = 0.5
	slowUsageFraction = 0.1
	fastUsageMultiple = 2.0
	summaryListLimit  = 5
)

type summaryResourceStore interface {
	ListResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error)
}

type summaryRequestStore interface {
	RecentRequests(ctx context.Context, tenantID string, limit int) ([]*model.ResourceRequest, error)
	UpcomingDeliveries(ctx context.Context, tenantID string, limit int) ([]*model.ResourceRequest, error)
	ListOpenRequests(ctx context.Context, tenantID string) ([]*model.ResourceRequest, error)
}

type tenantUsageStore interface {
	ListTenantUsageSince(ctx context.Context, tenantID string, since time.Time) ([]*model.ResourceUsage, error)
}

// ISummaryService defines the interface for dashboard aggregates
type ISummaryService interface {
	InventorySummary(ctx context.Context, tenantID string) (*model.InventorySummary, error)
	OptimizationSuggestions(ctx context.Context, tenantID string) ([]model.OptimizationSuggestion, error)
}

// SummaryService computes the dashboard view of a tenant's inventory and a
// set of optimization findings over its recent usage.
type SummaryService struct {
	resources  summaryResourceStore
	requests   summaryRequestStore
	usage      tenantUsageStore
	windowDays int
}

var _ ISummaryService = &SummaryService{}

func NewSummaryService(resources summaryResourceStore, requests summaryRequestStore, usage tenantUsageStore, windowDays int) *SummaryService {
	if windowDays < 1 {
		windowDays = 90
	}
	return &SummaryService{
		resources:  resources,
		requests:   requests,
		usage:      usage,
		windowDays: windowDays,
	}
}

func (s *SummaryService) InventorySummary(ctx context.Context, tenantID string) (*model.InventorySummary, error) {
	resources, err := s.resources.ListResources(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &model.InventorySummary{
		TenantID:       tenantID,
		GeneratedAt:    time.Now(),
		TotalResources: len(resources),
		CountsByStatus: make(map[string]int),
		CountsByType:   make(map[string]int),
		TotalValue:     decimal.Zero,
	}

	for _, resource := range resources {
		summary.CountsByStatus[resource.Status]++
		summary.CountsByType[resource.Type]++
		value := resource.UnitCost.Mul(decimal.NewFromFloat(resource.CurrentQuantity))
		summary.TotalValue = summary.TotalValue.Add(value)

		switch healthBucket(resource) {
		case "critical":
			summary.CriticalCount++
		case "warning":
			summary.WarningCount++
		default:
			summary.HealthyCount++
		}
	}

	recent, err := s.requests.RecentRequests(ctx, tenantID, summaryListLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range recent {
		summary.RecentRequests = append(summary.RecentRequests, *r)
	}

	upcoming, err := s.requests.UpcomingDeliveries(ctx, tenantID, summaryListLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range upcoming {
		summary.UpcomingDeliveries = append(summary.UpcomingDeliveries, *r)
	}

	return summary, nil
}

// healthBucket classifies an item: critical when empty or at half its
// minimum, warning when at or under the minimum, healthy otherwise.
func healthBucket(resource *model.ResourceItem) string {
	if resource.CurrentQuantity <= 0 {
		return "critical"
	}
	if resource.MinQuantity == nil {
		return "healthy"
	}
	if resource.CurrentQuantity <= *resource.MinQuantity*criticalFraction {
		return "critical"
	}
	if resource.CurrentQuantity <= *resource.MinQuantity {
		return "warning"
	}
	return "healthy"
}

func (s *SummaryService) OptimizationSuggestions(ctx context.Context, tenantID string) ([]model.OptimizationSuggestion, error) {
	resources, err := s.resources.ListResources(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -s.windowDays)
	usage, err := s.usage.ListTenantUsageSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	usageByResource := make(map[string]float64, len(usage))
	for _, u := range usage {
		usageByResource[u.ResourceID] += u.Quantity
	}

	var suggestions []model.OptimizationSuggestion
	var overstock, slow, fast, inactive []string

	for _, resource := range resources {
		if resource.Status == model.ResourceStatusDisposed {
			continue
		}
		used := usageByResource[resource.ID]

		if resource.MaxQuantity != nil && resource.CurrentQuantity > *resource.MaxQuantity {
			overstock = append(overstock, resource.ID)
		}
		switch {
		case used == 0:
			inactive = append(inactive, resource.ID)
		case resource.CurrentQuantity > 0 && used < resource.CurrentQuantity*slowUsageFraction:
			slow = append(slow, resource.ID)
		case resource.CurrentQuantity > 0 && used > resource.CurrentQuantity*fastUsageMultiple:
			fast = append(fast, resource.ID)
		}
	}

	if len(overstock) > 0 {
		suggestions = append(suggestions, model.OptimizationSuggestion{
			Kind:        model.SuggestionOverstock,
			ResourceIDs: overstock,
			Detail:      fmt.Sprintf("%d items hold more stock than their configured maximum", len(overstock)),
		})
	}
	if len(slow) > 0 {
		suggestions = append(suggestions, model.OptimizationSuggestion{
			Kind:        model.SuggestionSlowTurnover,
			ResourceIDs: slow,
			Detail:      fmt.Sprintf("%d items moved less than %.0f%% of their stock in %d days", len(slow), slowUsageFraction*100, s.windowDays),
		})
	}
	if len(fast) > 0 {
		suggestions = append(suggestions, model.OptimizationSuggestion{
			Kind:        model.SuggestionFastTurnover,
			ResourceIDs: fast,
			Detail:      fmt.Sprintf("%d items consumed more than %.0fx their stock in %d days, consider raising thresholds", len(fast), fastUsageMultiple, s.windowDays),
		})
	}
	if len(inactive) > 0 {
		suggestions = append(suggestions, model.OptimizationSuggestion{
			Kind:        model.SuggestionInactive,
			ResourceIDs: inactive,
			Detail:      fmt.Sprintf("%d items saw no usage in %d days", len(inactive), s.windowDays),
		})
	}

	consolidate, err := s.consolidateSuggestions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	suggestions = append(suggestions, consolidate...)

	return suggestions, nil
}

// consolidateSuggestions flags suppliers with multiple open requests that
// could be combined into a single order.
func (s *SummaryService) consolidateSuggestions(ctx context.Context, tenantID string) ([]model.OptimizationSuggestion, error) {
	open, err := s.requests.ListOpenRequests(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	bySupplier := make(map[string][]string)
	for _, request := range open {
		if request.Supplier == "" {
			continue
		}
		bySupplier[request.Supplier] = append(bySupplier[request.Supplier], request.ID)
	}

	var suggestions []model.OptimizationSuggestion
	for supplier, requestIDs := range bySupplier {
		if len(requestIDs) < 2 {
			continue
		}
		suggestions = append(suggestions, model.OptimizationSuggestion{
			Kind:       model.SuggestionConsolidate,
			RequestIDs: requestIDs,
			Supplier:   supplier,
			Detail:     fmt.Sprintf("%d open requests for supplier %s could be combined", len(requestIDs), supplier),
		})
	}
	return suggestions, nil
}
