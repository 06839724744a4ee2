// service/monitor_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

func init() {
	logger.InitTestLogger()
}

// fakeGate allows or denies features per key.
type fakeGate struct {
	denied map[string]bool
}

func (g *fakeGate) HasAgentAccess(ctx context.Context, tenantID, feature string) bool {
	return !g.denied[feature]
}

type fakeConfigStore struct {
	config *model.AgentConfiguration
	err    error
}

func (s *fakeConfigStore) GetByTenant(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	return s.config, s.err
}

type fakeMonitorResources struct {
	items   []*model.ResourceItem
	ordered []string
}

func (s *fakeMonitorResources) ListActiveResources(ctx context.Context, tenantID string) ([]*model.ResourceItem, error) {
	return s.items, nil
}

func (s *fakeMonitorResources) MarkOrdered(ctx context.Context, tenantID string, resourceIDs []string) error {
	s.ordered = append(s.ordered, resourceIDs...)
	return nil
}

// fakeRequestStore keeps requests in memory and mimics the DAO's merge and
// transition bookkeeping closely enough for engine tests.
type fakeRequestStore struct {
	open      map[string]*model.ResourceRequest // keyed by supplier
	created   []*model.ResourceRequest
	merged    int
	createErr error
	nextID    int
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{open: make(map[string]*model.ResourceRequest)}
}

func (s *fakeRequestStore) CreateRequest(ctx context.Context, request model.ResourceRequest) (*model.ResourceRequest, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	request.ID = string(rune('a' + s.nextID - 1))
	created := request
	s.created = append(s.created, &created)
	s.open[request.Supplier] = &created
	return &created, nil
}

func (s *fakeRequestStore) GetRequest(ctx context.Context, tenantID, requestID string) (*model.ResourceRequest, error) {
	for _, r := range s.created {
		if r.ID == requestID {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeRequestStore) SearchRequests(ctx context.Context, tenantID string, criteria model.RequestSearchCriteria) ([]*model.ResourceRequest, error) {
	return s.created, nil
}

func (s *fakeRequestStore) FindOpenBySupplier(ctx context.Context, tenantID, supplier string, sources []string) (*model.ResourceRequest, error) {
	request, ok := s.open[supplier]
	if !ok {
		return nil, nil
	}
	for _, source := range sources {
		if request.Source == source {
			return request, nil
		}
	}
	return nil, nil
}

func (s *fakeRequestStore) ListOpenRequests(ctx context.Context, tenantID string) ([]*model.ResourceRequest, error) {
	var out []*model.ResourceRequest
	for _, r := range s.open {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeRequestStore) MergeItems(ctx context.Context, request *model.ResourceRequest, items []model.RequestItem, actor, note string) (*model.ResourceRequest, error) {
	request.Items = append(request.Items, items...)
	request.History = append(request.History, model.RequestHistoryEntry{Action: "items_merged", Actor: actor, Note: note})
	s.merged++
	return request, nil
}

func (s *fakeRequestStore) Transition(ctx context.Context, tenantID, requestID, newStatus, actor, note string) (*model.ResourceRequest, error) {
	request, err := s.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	request.History = append(request.History, model.RequestHistoryEntry{
		Action:         "status_changed",
		Actor:          actor,
		PreviousStatus: request.Status,
		NewStatus:      newStatus,
	})
	request.Status = newStatus
	return request, nil
}

func (s *fakeRequestStore) UpdateDraft(ctx context.Context, request *model.ResourceRequest) (*model.ResourceRequest, error) {
	return request, nil
}

func (s *fakeRequestStore) SetFulfillment(ctx context.Context, tenantID, requestID string, fulfillment model.RequestFulfillment) error {
	request, err := s.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return err
	}
	request.Fulfillment = &fulfillment
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func lowResource(id, supplier string, current, min float64) *model.ResourceItem {
	return &model.ResourceItem{
		ID:              id,
		TenantID:        "t1",
		Name:            "resource-" + id,
		Type:            model.ResourceTypeConsumable,
		Status:          model.ResourceStatusAvailable,
		CurrentQuantity: current,
		MinQuantity:     floatPtr(min),
		Supplier:        supplier,
	}
}

func enabledConfig() *model.AgentConfiguration {
	return &model.AgentConfiguration{
		TenantID:                "t1",
		Enabled:                 true,
		InventoryCheckFrequency: 24,
		ForecastFrequency:       168,
		ApproverIDs:             []string{"approver-1"},
	}
}

func newMonitorFixture(items []*model.ResourceItem, cfg *model.AgentConfiguration) (*MonitorService, *fakeRequestStore, *fakeMonitorResources) {
	resources := &fakeMonitorResources{items: items}
	requests := newFakeRequestStore()
	svc := NewMonitorService(
		&fakeGate{},
		&fakeConfigStore{config: cfg},
		resources,
		requests,
		requests,
		util.NewNotificationService(nil),
	)
	return svc, requests, resources
}

func TestRunInventoryCheck_CreatesRequestPerSupplier(t *testing.T) {
	items := []*model.ResourceItem{
		lowResource("r1", "acme", 2, 10),
		lowResource("r2", "acme", 0, 5),
		lowResource("r3", "globex", 1, 4),
		lowResource("r4", "", 3, 8), // unknown supplier group
	}
	svc, requests, _ := newMonitorFixture(items, enabledConfig())

	err := svc.RunInventoryCheck(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, requests.created, 3)

	// Every low item lands in exactly one open request.
	seen := make(map[string]int)
	for _, request := range requests.created {
		assert.Equal(t, model.RequestStatusPending, request.Status)
		assert.Equal(t, model.SourceAutomated, request.Source)
		for _, item := range request.Items {
			seen[item.ResourceID]++
		}
	}
	for _, item := range items {
		assert.Equal(t, 1, seen[item.ID], "item %s should appear exactly once", item.ID)
	}

	bySupplier := make(map[string]*model.ResourceRequest)
	for _, request := range requests.created {
		bySupplier[request.Supplier] = request
	}
	assert.Contains(t, bySupplier, "acme")
	assert.Contains(t, bySupplier, "globex")
	assert.Contains(t, bySupplier, model.UnknownSupplier)

	// r2 is empty, so the acme group is urgent.
	assert.Equal(t, model.PriorityUrgent, bySupplier["acme"].Priority)
	assert.NotNil(t, bySupplier["acme"].NeededBy)
}

func TestRunInventoryCheck_MergesIntoOpenRequest(t *testing.T) {
	items := []*model.ResourceItem{
		lowResource("r1", "acme", 2, 10),
		lowResource("r2", "acme", 1, 5),
	}
	svc, requests, _ := newMonitorFixture(items, enabledConfig())

	// First run creates the request.
	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
	require.Len(t, requests.created, 1)
	require.Equal(t, 0, requests.merged)

	// A new item going low merges into the same open request.
	requests.created[0].Items = requests.created[0].Items[:1] // drop r2 so it counts as missing
	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
	assert.Len(t, requests.created, 1, "no second request for the same supplier")
	assert.Equal(t, 1, requests.merged)
	assert.True(t, requests.created[0].HasResource("r2"))
}

func TestRunInventoryCheck_MergeSkipsCoveredItems(t *testing.T) {
	items := []*model.ResourceItem{lowResource("r1", "acme", 2, 10)}
	svc, requests, _ := newMonitorFixture(items, enabledConfig())

	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))

	assert.Len(t, requests.created, 1)
	assert.Equal(t, 0, requests.merged, "already covered items must not merge again")
	assert.Len(t, requests.created[0].Items, 1)
}

func TestRunInventoryCheck_AutoApprove(t *testing.T) {
	cfg := enabledConfig()
	cfg.AutoApprove = true
	items := []*model.ResourceItem{
		lowResource("r1", "acme", 2, 10),
		lowResource("r2", "acme", 1, 5),
	}
	svc, requests, resources := newMonitorFixture(items, cfg)

	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
	require.Len(t, requests.created, 1)

	request := requests.created[0]
	assert.Equal(t, model.RequestStatusApproved, request.Status)
	require.Len(t, request.History, 2, "created plus approved")
	assert.Equal(t, "created", request.History[0].Action)
	assert.Equal(t, model.RequestStatusApproved, request.History[1].NewStatus)
	assert.Equal(t, SystemActor, request.History[1].Actor)

	assert.ElementsMatch(t, []string{"r1", "r2"}, resources.ordered)
}

func TestRunInventoryCheck_SkipsWhenNotConfigured(t *testing.T) {
	items := []*model.ResourceItem{lowResource("r1", "acme", 2, 10)}

	t.Run("no config", func(t *testing.T) {
		svc, requests, _ := newMonitorFixture(items, nil)
		require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
		assert.Empty(t, requests.created)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.Enabled = false
		svc, requests, _ := newMonitorFixture(items, cfg)
		require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
		assert.Empty(t, requests.created)
	})
}

func TestRunInventoryCheck_ConfigStoreFailure(t *testing.T) {
	items := []*model.ResourceItem{lowResource("r1", "acme", 2, 10)}

	newSvc := func(storeErr error) (*MonitorService, *fakeRequestStore) {
		resources := &fakeMonitorResources{items: items}
		requests := newFakeRequestStore()
		svc := NewMonitorService(
			&fakeGate{},
			&fakeConfigStore{err: storeErr},
			resources,
			requests,
			requests,
			util.NewNotificationService(nil),
		)
		return svc, requests
	}

	t.Run("store error surfaces", func(t *testing.T) {
		storeErr := errors.New("store unavailable")
		svc, requests := newSvc(storeErr)
		err := svc.RunInventoryCheck(context.Background(), "t1")
		require.ErrorIs(t, err, storeErr)
		assert.Empty(t, requests.created)
	})

	t.Run("absent config still skips quietly", func(t *testing.T) {
		svc, requests := newSvc(agent_errors.ErrConfigNotFound)
		require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
		assert.Empty(t, requests.created)
	})
}

func TestRunInventoryCheck_IgnoresHealthyAndOrdered(t *testing.T) {
	healthy := lowResource("r1", "acme", 50, 10)
	alreadyOrdered := lowResource("r2", "acme", 1, 10)
	alreadyOrdered.Status = model.ResourceStatusOrdered
	noThreshold := lowResource("r3", "acme", 0, 0)
	noThreshold.MinQuantity = nil

	svc, requests, _ := newMonitorFixture([]*model.ResourceItem{healthy, alreadyOrdered, noThreshold}, enabledConfig())

	require.NoError(t, svc.RunInventoryCheck(context.Background(), "t1"))
	assert.Empty(t, requests.created)
}
