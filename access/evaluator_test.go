// access/evaluator_test.go
package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
)

func init() {
	logger.InitTestLogger()
}

type stubConfigStore struct {
	config *model.AgentConfiguration
	err    error
	calls  int
}

func (s *stubConfigStore) GetByTenant(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	s.calls++
	return s.config, s.err
}

func TestEvaluate_FeatureDecisions(t *testing.T) {
	tests := []struct {
		name    string
		config  *model.AgentConfiguration
		err     error
		feature string
		allowed bool
	}{
		{
			name:    "enabled tenant may run inventory checks",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true},
			feature: FeatureInventoryCheck,
			allowed: true,
		},
		{
			name:    "enabled tenant may run forecasting",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true},
			feature: FeatureForecasting,
			allowed: true,
		},
		{
			name:    "disabled tenant is denied everything",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: false},
			feature: FeatureInventoryCheck,
			allowed: false,
		},
		{
			name:    "missing configuration denies",
			err:     errors.New("not found"),
			feature: FeatureForecasting,
			allowed: false,
		},
		{
			name:    "advance orders need the dedicated flag",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true},
			feature: FeatureAdvanceOrders,
			allowed: false,
		},
		{
			name:    "advance orders allowed when flagged",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true, AdvanceOrderEnabled: true},
			feature: FeatureAdvanceOrders,
			allowed: true,
		},
		{
			name:    "auto approve needs the dedicated flag",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true},
			feature: FeatureAutoApprove,
			allowed: false,
		},
		{
			name:    "auto approve allowed when flagged",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true, AutoApprove: true},
			feature: FeatureAutoApprove,
			allowed: true,
		},
		{
			name:    "unknown feature denies",
			config:  &model.AgentConfiguration{TenantID: "t1", Enabled: true},
			feature: "teleportation",
			allowed: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := NewEvaluator(&stubConfigStore{config: tc.config, err: tc.err}, 16)
			decision := evaluator.Evaluate(context.Background(), "t1", tc.feature)
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestEvaluate_CachesDecisions(t *testing.T) {
	store := &stubConfigStore{config: &model.AgentConfiguration{TenantID: "t1", Enabled: true}}
	evaluator := NewEvaluator(store, 16)

	for i := 0; i < 5; i++ {
		assert.True(t, evaluator.HasAgentAccess(context.Background(), "t1", FeatureForecasting))
	}
	assert.Equal(t, 1, store.calls)

	// A different feature is a separate cache entry.
	evaluator.Evaluate(context.Background(), "t1", FeatureInventoryCheck)
	assert.Equal(t, 2, store.calls)
}

func TestInvalidate_DropsOnlyTheTenant(t *testing.T) {
	store := &stubConfigStore{config: &model.AgentConfiguration{Enabled: true}}
	evaluator := NewEvaluator(store, 16)

	evaluator.Evaluate(context.Background(), "t1", FeatureForecasting)
	evaluator.Evaluate(context.Background(), "t2", FeatureForecasting)
	assert.Equal(t, 2, store.calls)

	evaluator.Invalidate("t1")

	evaluator.Evaluate(context.Background(), "t2", FeatureForecasting)
	assert.Equal(t, 2, store.calls, "t2 still cached")
	evaluator.Evaluate(context.Background(), "t1", FeatureForecasting)
	assert.Equal(t, 3, store.calls, "t1 re-evaluated after invalidation")
}

func TestStore_EvictsWhenFull(t *testing.T) {
	store := &stubConfigStore{config: &model.AgentConfiguration{Enabled: true}}
	evaluator := NewEvaluator(store, 2)

	evaluator.Evaluate(context.Background(), "t1", FeatureForecasting)
	evaluator.Evaluate(context.Background(), "t2", FeatureForecasting)
	evaluator.Evaluate(context.Background(), "t3", FeatureForecasting)

	evaluator.mu.Lock()
	defer evaluator.mu.Unlock()
	assert.LessOrEqual(t, len(evaluator.cache), 2)
}
