// access/evaluator.go
package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

// Feature keys gated per tenant.
const (
	FeatureInventoryCheck = "inventory_check"
	FeatureForecasting    = "forecasting"
	FeatureAdvanceOrders  = "advance_orders"
	FeatureAutoApprove    = "auto_approve"
)

// Decision is the outcome of a feature access evaluation.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type configStore interface {
	GetByTenant(ctx context.Context, tenantID string) (*model.AgentConfiguration, error)
}

// Evaluator answers whether a tenant may run a given engine feature, based
// on its stored configuration. Decisions are cached briefly so scheduled
// jobs do not hammer the config store.
type Evaluator struct {
	configs configStore
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	size  int
}

type cacheEntry struct {
	decision  Decision
	expiresAt time.Time
}

func NewEvaluator(configs configStore, cacheSize int) *Evaluator {
	if cacheSize < 1 {
		cacheSize = 256
	}
	return &Evaluator{
		configs: configs,
		ttl:     time.Minute,
		cache:   make(map[string]cacheEntry),
		size:    cacheSize,
	}
}

// Evaluate returns the access decision for a tenant and feature.
func (e *Evaluator) Evaluate(ctx context.Context, tenantID, feature string) Decision {
	key := fmt.Sprintf("%s:%s", tenantID, feature)
	if decision, ok := e.cached(key); ok {
		return decision
	}

	decision := e.evaluate(ctx, tenantID, feature)
	e.store(key, decision)
	return decision
}

// HasAgentAccess is the boolean convenience used by the engine's job gates.
func (e *Evaluator) HasAgentAccess(ctx context.Context, tenantID, feature string) bool {
	decision := e.Evaluate(ctx, tenantID, feature)
	if !decision.Allowed {
		logger.Info("Feature access denied",
			zap.String("tenantID", tenantID),
			zap.String("feature", feature),
			zap.String("reason", decision.Reason))
	}
	return decision.Allowed
}

func (e *Evaluator) evaluate(ctx context.Context, tenantID, feature string) Decision {
	config, err := e.configs.GetByTenant(ctx, tenantID)
	if err != nil || config == nil {
		return Decision{Allowed: false, Reason: "no configuration for tenant"}
	}
	if !config.Enabled {
		return Decision{Allowed: false, Reason: "agent disabled for tenant"}
	}

	switch feature {
	case FeatureInventoryCheck, FeatureForecasting:
		return Decision{Allowed: true}
	case FeatureAdvanceOrders:
		if !config.AdvanceOrderEnabled {
			return Decision{Allowed: false, Reason: "advance ordering disabled"}
		}
		return Decision{Allowed: true}
	case FeatureAutoApprove:
		if !config.AutoApprove {
			return Decision{Allowed: false, Reason: "auto approval disabled"}
		}
		return Decision{Allowed: true}
	default:
		logger.Warn("Unknown feature key", zap.String("feature", feature))
		return Decision{Allowed: false, Reason: "unknown feature"}
	}
}

// Invalidate drops cached decisions for a tenant, called when its
// configuration changes.
func (e *Evaluator) Invalidate(tenantID string) {
	prefix := tenantID + ":"
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(e.cache, key)
		}
	}
}

func (e *Evaluator) cached(key string) (Decision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return Decision{}, false
	}
	return entry.decision, true
}

func (e *Evaluator) store(key string, decision Decision) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cache) >= e.size {
		for k := range e.cache {
			delete(e.cache, k)
			break
		}
	}
	e.cache[key] = cacheEntry{decision: decision, expiresAt: time.Now().Add(e.ttl)}
}
