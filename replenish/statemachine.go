// replenish/statemachine.go

// Package replenish holds the request state machine and the pure planning
// rules that turn low-stock or forecasted-shortfall conditions into
// supplier-grouped replenishment requests.
package replenish

import (
	"github.com/stonefield/resourcing/model"
)

// transitions is the full edge set of the request lifecycle. canceled is
// reachable from every non-terminal state and is handled separately.
var transitions = map[string][]string{
	model.RequestStatusDraft:              {model.RequestStatusPending},
	model.RequestStatusPending:            {model.RequestStatusApproved, model.RequestStatusRejected},
	model.RequestStatusApproved:           {model.RequestStatusOrdered},
	model.RequestStatusOrdered:            {model.RequestStatusReceived, model.RequestStatusPartiallyFulfilled},
	model.RequestStatusReceived:           {model.RequestStatusFulfilled},
	model.RequestStatusPartiallyFulfilled: {model.RequestStatusFulfilled},
}

// terminal states admit no further transitions.
var terminal = map[string]bool{
	model.RequestStatusFulfilled: true,
	model.RequestStatusRejected:  true,
	model.RequestStatusCanceled:  true,
}

// IsTerminal reports whether a request in the given status can still move.
func IsTerminal(status string) bool {
	return terminal[status]
}

// CanTransition reports whether the state machine admits the edge from one
// status to another.
func CanTransition(from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	if to == model.RequestStatusCanceled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActionForTransition names the history action recorded for an edge.
func ActionForTransition(to string) string {
	switch to {
	case model.RequestStatusPending:
		return "submitted"
	case model.RequestStatusApproved:
		return "approved"
	case model.RequestStatusRejected:
		return "rejected"
	case model.RequestStatusOrdered:
		return "ordered"
	case model.RequestStatusReceived:
		return "received"
	case model.RequestStatusPartiallyFulfilled:
		return "partially_fulfilled"
	case model.RequestStatusFulfilled:
		return "fulfilled"
	case model.RequestStatusCanceled:
		return "canceled"
	default:
		return "status_changed"
	}
}
