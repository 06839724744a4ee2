// replenish/plan_test.go
package replenish

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stonefield/resourcing/model"
)

func fptr(f float64) *float64 { return &f }

func TestOrderQuantityFallbackChain(t *testing.T) {
	// Optimal wins when set.
	item := &model.ResourceItem{CurrentQuantity: 3, MinQuantity: fptr(10), OptimalQuantity: fptr(25), MaxQuantity: fptr(50)}
	assert.Equal(t, 22.0, OrderQuantity(item))

	// Falls back to max.
	item = &model.ResourceItem{CurrentQuantity: 3, MinQuantity: fptr(10), MaxQuantity: fptr(50)}
	assert.Equal(t, 47.0, OrderQuantity(item))

	// Neither optimal nor max: 2 x max(min, 1).
	item = &model.ResourceItem{CurrentQuantity: 2, MinQuantity: fptr(10)}
	assert.Equal(t, 20.0, OrderQuantity(item))

	// No thresholds at all: still orders something.
	item = &model.ResourceItem{CurrentQuantity: 0}
	assert.Equal(t, 2.0, OrderQuantity(item))

	// Tiny fractional minimum clamps to 1.
	item = &model.ResourceItem{CurrentQuantity: 0, MinQuantity: fptr(0.25)}
	assert.Equal(t, 2.0, OrderQuantity(item))
}

func TestItemPriority(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		min     *float64
		want    string
	}{
		{"depleted", 0, fptr(10), model.PriorityUrgent},
		{"negative treated as depleted", -1, fptr(10), model.PriorityUrgent},
		{"under quarter of min", 2, fptr(10), model.PriorityHigh},
		{"under half of min", 4, fptr(10), model.PriorityMedium},
		{"at half of min", 5, fptr(10), model.PriorityLow},
		{"at min", 10, fptr(10), model.PriorityLow},
		{"no min", 3, nil, model.PriorityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := &model.ResourceItem{CurrentQuantity: tc.current, MinQuantity: tc.min}
			assert.Equal(t, tc.want, ItemPriority(item))
		})
	}
}

func TestGroupPriorityUrgentDominates(t *testing.T) {
	items := []*model.ResourceItem{
		{CurrentQuantity: 9, MinQuantity: fptr(10)}, // low
		{CurrentQuantity: 0, MinQuantity: fptr(10)}, // urgent
		{CurrentQuantity: 4, MinQuantity: fptr(10)}, // medium
	}
	assert.Equal(t, model.PriorityUrgent, GroupPriority(items))

	assert.Equal(t, model.PriorityLow, GroupPriority(nil))
	assert.Equal(t, model.PriorityMedium, GroupPriority(items[2:]))
}

func TestLowStockScenario(t *testing.T) {
	// min=10, current=2, no optimal/max: order 20 at high priority.
	item := &model.ResourceItem{ID: "res-a", CurrentQuantity: 2, MinQuantity: fptr(10)}
	assert.Equal(t, 20.0, OrderQuantity(item))
	assert.Equal(t, model.PriorityHigh, ItemPriority(item))
}

func TestGroupBySupplier(t *testing.T) {
	items := []*model.ResourceItem{
		{ID: "a", Supplier: "acme"},
		{ID: "b", Supplier: "acme"},
		{ID: "c", Supplier: "globex"},
		{ID: "d"},
	}
	groups := GroupBySupplier(items)
	assert.Len(t, groups, 3)
	assert.Len(t, groups["acme"], 2)
	assert.Len(t, groups["globex"], 1)
	assert.Len(t, groups[model.UnknownSupplier], 1)
}

func TestMissingFrom(t *testing.T) {
	items := []*model.ResourceItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Equal(t, items, MissingFrom(nil, items))

	open := &model.ResourceRequest{
		Status: model.RequestStatusPending,
		Items:  []model.RequestItem{{ResourceID: "a"}, {ResourceID: "c"}},
	}
	missing := MissingFrom(open, items)
	assert.Len(t, missing, 1)
	assert.Equal(t, "b", missing[0].ID)

	// Fully covered group yields nothing to merge.
	open.Items = append(open.Items, model.RequestItem{ResourceID: "b"})
	assert.Empty(t, MissingFrom(open, items))
}

func TestLineItem(t *testing.T) {
	item := &model.ResourceItem{
		ID:       "res-a",
		Name:     "Widget",
		Type:     model.ResourceTypeConsumable,
		Unit:     "box",
		UnitCost: decimal.NewFromFloat(2.5),
	}
	line := LineItem(item, 4)
	assert.Equal(t, "res-a", line.ResourceID)
	assert.Equal(t, 4.0, line.Quantity)
	assert.True(t, line.TotalCost.Equal(decimal.NewFromInt(10)))
}
