// replenish/plan.go
package replenish

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/stonefield/resourcing/model"
)

// Priority thresholds as a fraction of the minimum quantity.
const (
	highFraction   = 0.25
	mediumFraction = 0.50
)

// OrderQuantity computes how much of a resource to order: refill to the
// optimal level, else to the maximum level, else order twice the reorder
// threshold (at least two units for items with no usable minimum).
func OrderQuantity(item *model.ResourceItem) float64 {
	if item.OptimalQuantity != nil && *item.OptimalQuantity > item.CurrentQuantity {
		return *item.OptimalQuantity - item.CurrentQuantity
	}
	if item.MaxQuantity != nil && *item.MaxQuantity > item.CurrentQuantity {
		return *item.MaxQuantity - item.CurrentQuantity
	}
	min := 1.0
	if item.MinQuantity != nil {
		min = math.Max(*item.MinQuantity, 1)
	}
	return 2 * min
}

// ItemPriority derives the urgency of a single low-stock item from how far
// it has fallen under its reorder threshold.
func ItemPriority(item *model.ResourceItem) string {
	if item.CurrentQuantity <= 0 {
		return model.PriorityUrgent
	}
	if item.MinQuantity == nil || *item.MinQuantity <= 0 {
		return model.PriorityLow
	}
	ratio := item.CurrentQuantity / *item.MinQuantity
	switch {
	case ratio < highFraction:
		return model.PriorityHigh
	case ratio < mediumFraction:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// priorityRank orders priorities from least to most urgent.
var priorityRank = map[string]int{
	model.PriorityLow:    0,
	model.PriorityMedium: 1,
	model.PriorityHigh:   2,
	model.PriorityUrgent: 3,
}

// GroupPriority is the worst-case priority across a supplier group: a single
// depleted item makes the whole group urgent.
func GroupPriority(items []*model.ResourceItem) string {
	priority := model.PriorityLow
	for _, item := range items {
		p := ItemPriority(item)
		if priorityRank[p] > priorityRank[priority] {
			priority = p
		}
	}
	return priority
}

// GroupBySupplier buckets items under their supplier, using the unknown
// sentinel for items without one.
func GroupBySupplier(items []*model.ResourceItem) map[string][]*model.ResourceItem {
	groups := make(map[string][]*model.ResourceItem)
	for _, item := range items {
		key := item.SupplierOrUnknown()
		groups[key] = append(groups[key], item)
	}
	return groups
}

// MissingFrom returns the items of a supplier group not yet referenced by the
// given open request. A nil request leaves the group untouched.
func MissingFrom(request *model.ResourceRequest, items []*model.ResourceItem) []*model.ResourceItem {
	if request == nil {
		return items
	}
	var missing []*model.ResourceItem
	for _, item := range items {
		if !request.HasResource(item.ID) {
			missing = append(missing, item)
		}
	}
	return missing
}

// LineItem builds the request line for a low-stock item.
func LineItem(item *model.ResourceItem, quantity float64) model.RequestItem {
	line := model.RequestItem{
		ResourceID: item.ID,
		Name:       item.Name,
		Type:       item.Type,
		Quantity:   quantity,
		Unit:       item.Unit,
		UnitCost:   item.UnitCost,
	}
	line.TotalCost = item.UnitCost.Mul(decimal.NewFromFloat(quantity))
	return line
}
