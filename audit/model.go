// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Entry is one audited replenishment action: a request status transition, a
// merge into an open request, or a scheduled job run.
type Entry struct {
	Timestamp      time.Time       `json:"timestamp"`
	TenantID       string          `json:"tenant_id"`
	Actor          string          `json:"actor"`
	Action         string          `json:"action"`
	RequestID      string          `json:"request_id,omitempty"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	NewStatus      string          `json:"new_status,omitempty"`
	Details        json.RawMessage `json:"details,omitempty"`
}
