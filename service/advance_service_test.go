// service/advance_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

type fakeAdvanceForecasts struct {
	eligible  []*model.ResourceForecast
	confirmed map[string]string // forecastID -> requestID
}

func (s *fakeAdvanceForecasts) ListEligibleForAdvanceOrder(ctx context.Context, tenantID string, horizonDays int, minConfidence float64) ([]*model.ResourceForecast, error) {
	return s.eligible, nil
}

func (s *fakeAdvanceForecasts) ConfirmForecasts(ctx context.Context, tenantID string, forecastIDs []string, requestID string) error {
	if s.confirmed == nil {
		s.confirmed = make(map[string]string)
	}
	for _, id := range forecastIDs {
		s.confirmed[id] = requestID
	}
	return nil
}

type fakeAdvanceResources struct {
	byID    map[string]*model.ResourceItem
	failing map[string]bool
}

func (s *fakeAdvanceResources) GetResource(ctx context.Context, tenantID, resourceID string) (*model.ResourceItem, error) {
	if s.failing[resourceID] {
		return nil, errors.New("unavailable")
	}
	resource, ok := s.byID[resourceID]
	if !ok {
		return nil, errors.New("not found")
	}
	return resource, nil
}

// fakeAdvanceNotifier records manager fan-out calls, which happen on a
// goroutine after the run completes.
type fakeAdvanceNotifier struct {
	mu       sync.Mutex
	calls    int
	managers []string
	placed   int
}

func (n *fakeAdvanceNotifier) NotifyRequestPending(ctx context.Context, request model.ResourceRequest, approverIDs []string) error {
	return nil
}

func (n *fakeAdvanceNotifier) NotifyAdvanceOrders(ctx context.Context, tenantID string, managerIDs []string, requests []*model.ResourceRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.managers = managerIDs
	n.placed = len(requests)
	return nil
}

func (n *fakeAdvanceNotifier) snapshot() (int, []string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, n.managers, n.placed
}

func advanceConfig() *model.AgentConfiguration {
	cfg := enabledConfig()
	cfg.AdvanceOrderEnabled = true
	cfg.AdvanceOrderDays = 30
	cfg.MinConfidence = 0.7
	return cfg
}

func eligibleForecast(id, resourceID string, projected, confidence float64) *model.ResourceForecast {
	return &model.ResourceForecast{
		ID:                id,
		TenantID:          "t1",
		ResourceID:        resourceID,
		HorizonDays:       30,
		ProjectedQuantity: projected,
		ConfidenceLevel:   confidence,
		Status:            model.ForecastStatusProjected,
	}
}

func newAdvanceFixture(forecasts *fakeAdvanceForecasts, resources *fakeAdvanceResources, cfg *model.AgentConfiguration) (*AdvanceOrderService, *fakeRequestStore) {
	requests := newFakeRequestStore()
	svc := NewAdvanceOrderService(
		&fakeGate{},
		&fakeConfigStore{config: cfg},
		forecasts,
		resources,
		requests,
		util.NewNotificationService(nil),
	)
	return svc, requests
}

func TestRunAdvanceOrders_CreatesRequestPerSupplier(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
		eligibleForecast("f2", "r2", 15, 0.8),
		eligibleForecast("f3", "r3", 25, 0.75),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
		"r2": lowResource("r2", "acme", 5, 10),
		"r3": lowResource("r3", "globex", 5, 10),
	}}
	svc, requests := newAdvanceFixture(forecasts, resources, advanceConfig())

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	require.Len(t, requests.created, 2)
	bySupplier := make(map[string]*model.ResourceRequest)
	for _, r := range requests.created {
		bySupplier[r.Supplier] = r
		assert.Equal(t, model.RequestStatusPending, r.Status)
		assert.Equal(t, model.SourcePrediction, r.Source)
		assert.Equal(t, SystemActor, r.RequestedBy)
		assert.Equal(t, "true", r.Metadata[model.MetaForecastBased])
		require.NotNil(t, r.NeededBy)
	}
	require.Len(t, bySupplier["acme"].Items, 2)
	require.Len(t, bySupplier["globex"].Items, 1)
	assert.Equal(t, 40.0, bySupplier["acme"].Items[0].Quantity)

	// 30 days out minus the medium lead time of 7.
	wantNeededBy := time.Now().AddDate(0, 0, 23)
	assert.WithinDuration(t, wantNeededBy, *bySupplier["acme"].NeededBy, time.Minute)

	assert.Equal(t, bySupplier["acme"].ID, forecasts.confirmed["f1"])
	assert.Equal(t, bySupplier["acme"].ID, forecasts.confirmed["f2"])
	assert.Equal(t, bySupplier["globex"].ID, forecasts.confirmed["f3"])
}

func TestRunAdvanceOrders_MergesIntoOpenPredictionRequest(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
		eligibleForecast("f2", "r2", 15, 0.8),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
		"r2": lowResource("r2", "acme", 5, 10),
	}}
	svc, requests := newAdvanceFixture(forecasts, resources, advanceConfig())

	requests.open["acme"] = &model.ResourceRequest{
		ID:       "open-1",
		TenantID: "t1",
		Status:   model.RequestStatusPending,
		Source:   model.SourcePrediction,
		Supplier: "acme",
		Items:    []model.RequestItem{{ResourceID: "r1", Quantity: 12}},
	}

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	assert.Empty(t, requests.created, "should merge, not create")
	assert.Equal(t, 1, requests.merged)
	merged := requests.open["acme"]
	require.Len(t, merged.Items, 2, "only the uncovered line is added")
	assert.Equal(t, "r2", merged.Items[1].ResourceID)
	assert.Equal(t, "open-1", forecasts.confirmed["f2"])
	assert.NotContains(t, forecasts.confirmed, "f1", "covered lines stay projected")
}

func TestRunAdvanceOrders_DoesNotMergeAcrossSources(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
	}}
	svc, requests := newAdvanceFixture(forecasts, resources, advanceConfig())

	// An automated restock request for the same supplier lives in the
	// reactive merge domain and must not absorb prediction lines.
	requests.open["acme"] = &model.ResourceRequest{
		ID:       "open-1",
		TenantID: "t1",
		Status:   model.RequestStatusPending,
		Source:   model.SourceAutomated,
		Supplier: "acme",
	}

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	assert.Equal(t, 0, requests.merged)
	require.Len(t, requests.created, 1)
	assert.Equal(t, model.SourcePrediction, requests.created[0].Source)
}

func TestRunAdvanceOrders_SkipsWhenNotEnabled(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
	}}

	cfg := advanceConfig()
	cfg.AdvanceOrderEnabled = false
	svc, requests := newAdvanceFixture(forecasts, resources, cfg)

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))
	assert.Empty(t, requests.created)
	assert.Empty(t, forecasts.confirmed)
}

func TestRunAdvanceOrders_NotifiesManagersOfPlacedOrders(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
		eligibleForecast("f2", "r2", 25, 0.8),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
		"r2": lowResource("r2", "globex", 5, 10),
	}}

	cfg := advanceConfig()
	cfg.ManagerIDs = []string{"manager-1", "manager-2"}
	notifier := &fakeAdvanceNotifier{}
	requests := newFakeRequestStore()
	svc := NewAdvanceOrderService(
		&fakeGate{},
		&fakeConfigStore{config: cfg},
		forecasts,
		resources,
		requests,
		notifier,
	)

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	require.Eventually(t, func() bool {
		calls, _, _ := notifier.snapshot()
		return calls == 1
	}, time.Second, 10*time.Millisecond, "managers should be notified once")

	_, managers, placed := notifier.snapshot()
	assert.Equal(t, []string{"manager-1", "manager-2"}, managers)
	assert.Equal(t, 2, placed)
}

func TestRunAdvanceOrders_NoManagerNotificationWithoutManagers(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
	}}
	resources := &fakeAdvanceResources{byID: map[string]*model.ResourceItem{
		"r1": lowResource("r1", "acme", 5, 10),
	}}

	notifier := &fakeAdvanceNotifier{}
	requests := newFakeRequestStore()
	svc := NewAdvanceOrderService(
		&fakeGate{},
		&fakeConfigStore{config: advanceConfig()},
		forecasts,
		resources,
		requests,
		notifier,
	)

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	// No goroutine is spawned when the tenant has no managers configured.
	calls, _, _ := notifier.snapshot()
	assert.Zero(t, calls)
	require.Len(t, requests.created, 1)
}

func TestRunAdvanceOrders_SkipsLinesWithoutResource(t *testing.T) {
	forecasts := &fakeAdvanceForecasts{eligible: []*model.ResourceForecast{
		eligibleForecast("f1", "r1", 40, 0.9),
		eligibleForecast("f2", "r2", 15, 0.8),
	}}
	resources := &fakeAdvanceResources{
		byID:    map[string]*model.ResourceItem{"r2": lowResource("r2", "acme", 5, 10)},
		failing: map[string]bool{"r1": true},
	}
	svc, requests := newAdvanceFixture(forecasts, resources, advanceConfig())

	require.NoError(t, svc.RunAdvanceOrders(context.Background(), "t1"))

	require.Len(t, requests.created, 1)
	require.Len(t, requests.created[0].Items, 1)
	assert.Equal(t, "r2", requests.created[0].Items[0].ResourceID)
	assert.NotContains(t, forecasts.confirmed, "f1")
}
