// service/request_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent_errors "github.com/stonefield/resourcing/errors"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

type fakeOrderedResources struct {
	ordered  []string
	received map[string]float64
}

func (s *fakeOrderedResources) MarkOrdered(ctx context.Context, tenantID string, resourceIDs []string) error {
	s.ordered = append(s.ordered, resourceIDs...)
	return nil
}

func (s *fakeOrderedResources) AddReceivedQuantity(ctx context.Context, tenantID, resourceID string, quantity float64) error {
	if s.received == nil {
		s.received = make(map[string]float64)
	}
	s.received[resourceID] += quantity
	return nil
}

func newRequestFixture(cfg *model.AgentConfiguration) (*RequestService, *fakeRequestStore, *fakeOrderedResources) {
	requests := newFakeRequestStore()
	resources := &fakeOrderedResources{}
	svc := NewRequestService(
		requests,
		resources,
		&fakeConfigStore{config: cfg},
		util.NewValidationUtil(),
		util.NewNotificationService(nil),
		util.NewEventBus(),
	)
	return svc, requests, resources
}

func orderedRequest(items []model.RequestItem) *model.ResourceRequest {
	return &model.ResourceRequest{
		TenantID: "t1",
		Title:    "Restock",
		Status:   model.RequestStatusOrdered,
		Priority: model.PriorityMedium,
		Source:   model.SourceManual,
		Items:    items,
	}
}

func TestCreateRequest_DefaultsAndHistory(t *testing.T) {
	svc, _, _ := newRequestFixture(enabledConfig())

	created, err := svc.CreateRequest(context.Background(), model.ResourceRequest{
		TenantID: "t1",
		Title:    "Restock filament",
		Items:    []model.RequestItem{{ResourceID: "r1", Quantity: 5}},
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusDraft, created.Status)
	assert.Equal(t, model.SourceManual, created.Source)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.Equal(t, "user-1", created.RequestedBy)
	require.Len(t, created.History, 1)
	assert.Equal(t, "created", created.History[0].Action)
}

func TestCreateRequest_RejectsInvalidData(t *testing.T) {
	svc, requests, _ := newRequestFixture(enabledConfig())

	_, err := svc.CreateRequest(context.Background(), model.ResourceRequest{
		TenantID: "t1",
		Title:    "No items",
	}, "user-1")
	assert.ErrorIs(t, err, agent_errors.ErrInvalidRequestData)
	assert.Empty(t, requests.created)
}

func TestMarkOrdered_DerivesExpectedDeliveryFromLeadTime(t *testing.T) {
	cfg := enabledConfig()
	cfg.LeadTimes = map[string]int{model.PriorityMedium: 5}
	svc, requests, resources := newRequestFixture(cfg)

	seed, err := requests.CreateRequest(context.Background(), *orderedRequest([]model.RequestItem{
		{ResourceID: "r1", Quantity: 5},
		{ResourceID: "r2", Quantity: 3},
	}))
	require.NoError(t, err)
	seed.Status = model.RequestStatusApproved

	updated, err := svc.MarkOrdered(context.Background(), "t1", seed.ID, "user-1", OrderDetails{
		OrderNumber: "PO-100",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusOrdered, updated.Status)
	require.NotNil(t, updated.Fulfillment)
	assert.Equal(t, "PO-100", updated.Fulfillment.OrderNumber)
	require.NotNil(t, updated.Fulfillment.ExpectedDelivery)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 5), *updated.Fulfillment.ExpectedDelivery, time.Minute)
	assert.ElementsMatch(t, []string{"r1", "r2"}, resources.ordered)
}

func TestReceiveDelivery_CompleteRunsThroughToFulfilled(t *testing.T) {
	svc, requests, resources := newRequestFixture(enabledConfig())

	seed, err := requests.CreateRequest(context.Background(), *orderedRequest([]model.RequestItem{
		{ResourceID: "r1", Quantity: 5},
	}))
	require.NoError(t, err)

	updated, err := svc.ReceiveDelivery(context.Background(), "t1", seed.ID, "user-1", []model.ReceivedItem{
		{ResourceID: "r1", Quantity: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusFulfilled, updated.Status)
	assert.Equal(t, 5.0, resources.received["r1"])
	require.NotNil(t, updated.Fulfillment)
	assert.NotNil(t, updated.Fulfillment.ActualDelivery)

	// ordered passes through received on its way to fulfilled
	statuses := make([]string, 0, len(updated.History))
	for _, entry := range updated.History {
		if entry.Action == "status_changed" {
			statuses = append(statuses, entry.NewStatus)
		}
	}
	assert.Equal(t, []string{model.RequestStatusReceived, model.RequestStatusFulfilled}, statuses)
}

func TestReceiveDelivery_PartialThenComplete(t *testing.T) {
	svc, requests, resources := newRequestFixture(enabledConfig())

	seed, err := requests.CreateRequest(context.Background(), *orderedRequest([]model.RequestItem{
		{ResourceID: "r1", Quantity: 10},
	}))
	require.NoError(t, err)

	partial, err := svc.ReceiveDelivery(context.Background(), "t1", seed.ID, "user-1", []model.ReceivedItem{
		{ResourceID: "r1", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPartiallyFulfilled, partial.Status)
	assert.Equal(t, 4.0, resources.received["r1"])

	complete, err := svc.ReceiveDelivery(context.Background(), "t1", seed.ID, "user-1", []model.ReceivedItem{
		{ResourceID: "r1", Quantity: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusFulfilled, complete.Status)
	assert.Equal(t, 10.0, resources.received["r1"])
	require.NotNil(t, complete.Fulfillment)
	assert.Len(t, complete.Fulfillment.ReceivedItems, 2)
}

func TestReceiveDelivery_RejectsWrongStatus(t *testing.T) {
	svc, requests, _ := newRequestFixture(enabledConfig())

	draft := orderedRequest([]model.RequestItem{{ResourceID: "r1", Quantity: 5}})
	draft.Status = model.RequestStatusDraft
	seed, err := requests.CreateRequest(context.Background(), *draft)
	require.NoError(t, err)

	_, err = svc.ReceiveDelivery(context.Background(), "t1", seed.ID, "user-1", []model.ReceivedItem{
		{ResourceID: "r1", Quantity: 5},
	})
	assert.ErrorIs(t, err, agent_errors.ErrInvalidTransition)
}
