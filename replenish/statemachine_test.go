// replenish/statemachine_test.go
package replenish

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stonefield/resourcing/model"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{model.RequestStatusDraft, model.RequestStatusPending},
		{model.RequestStatusPending, model.RequestStatusApproved},
		{model.RequestStatusPending, model.RequestStatusRejected},
		{model.RequestStatusApproved, model.RequestStatusOrdered},
		{model.RequestStatusOrdered, model.RequestStatusReceived},
		{model.RequestStatusOrdered, model.RequestStatusPartiallyFulfilled},
		{model.RequestStatusReceived, model.RequestStatusFulfilled},
		{model.RequestStatusPartiallyFulfilled, model.RequestStatusFulfilled},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{model.RequestStatusDraft, model.RequestStatusApproved},
		{model.RequestStatusDraft, model.RequestStatusOrdered},
		{model.RequestStatusPending, model.RequestStatusFulfilled},
		{model.RequestStatusApproved, model.RequestStatusReceived},
		{model.RequestStatusRejected, model.RequestStatusPending},
		{model.RequestStatusFulfilled, model.RequestStatusOrdered},
		{model.RequestStatusCanceled, model.RequestStatusPending},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestCancelReachableFromNonTerminalOnly(t *testing.T) {
	nonTerminal := []string{
		model.RequestStatusDraft,
		model.RequestStatusPending,
		model.RequestStatusApproved,
		model.RequestStatusOrdered,
		model.RequestStatusReceived,
		model.RequestStatusPartiallyFulfilled,
	}
	for _, from := range nonTerminal {
		assert.True(t, CanTransition(from, model.RequestStatusCanceled), "cancel from %s", from)
	}

	for _, from := range []string{model.RequestStatusFulfilled, model.RequestStatusRejected, model.RequestStatusCanceled} {
		assert.True(t, IsTerminal(from))
		assert.False(t, CanTransition(from, model.RequestStatusCanceled), "cancel from terminal %s", from)
	}
}

func TestActionForTransition(t *testing.T) {
	assert.Equal(t, "approved", ActionForTransition(model.RequestStatusApproved))
	assert.Equal(t, "submitted", ActionForTransition(model.RequestStatusPending))
	assert.Equal(t, "canceled", ActionForTransition(model.RequestStatusCanceled))
	assert.Equal(t, "status_changed", ActionForTransition("weird"))
}
