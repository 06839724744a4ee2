// service/agent_config_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	agent_errors "github.com/stonefield/resourcing/errors"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/util"
)

type configWriter interface {
	agentConfigStore
	Upsert(ctx context.Context, config model.AgentConfiguration) (*model.AgentConfiguration, error)
}

type decisionInvalidator interface {
	Invalidate(tenantID string)
}

// IAgentConfigService defines the interface for agent configuration
type IAgentConfigService interface {
	GetConfig(ctx context.Context, tenantID string) (*model.AgentConfiguration, error)
	UpdateConfig(ctx context.Context, config model.AgentConfiguration, updaterID string) (*model.AgentConfiguration, error)
}

// AgentConfigService manages per-tenant engine settings. Saving a
// configuration publishes an update event so the job registry reschedules
// the tenant before the next tick.
type AgentConfigService struct {
	configs        configWriter
	validationUtil *util.ValidationUtil
	evaluator      decisionInvalidator
	eventBus       *util.EventBus
}

var _ IAgentConfigService = &AgentConfigService{}

func NewAgentConfigService(configs configWriter, validationUtil *util.ValidationUtil, evaluator decisionInvalidator, eventBus *util.EventBus) *AgentConfigService {
	return &AgentConfigService{
		configs:        configs,
		validationUtil: validationUtil,
		evaluator:      evaluator,
		eventBus:       eventBus,
	}
}

func (s *AgentConfigService) GetConfig(ctx context.Context, tenantID string) (*model.AgentConfiguration, error) {
	if tenantID == "" {
		return nil, agent_errors.ErrTenantRequired
	}
	return s.configs.GetByTenant(ctx, tenantID)
}

func (s *AgentConfigService) UpdateConfig(ctx context.Context, config model.AgentConfiguration, updaterID string) (*model.AgentConfiguration, error) {
	if config.TenantID == "" {
		return nil, agent_errors.ErrTenantRequired
	}
	applyConfigDefaults(&config)
	if err := s.validationUtil.ValidateConfig(config); err != nil {
		logger.Warn("Invalid agent config", zap.Error(err), zap.String("tenantID", config.TenantID))
		return nil, agent_errors.ErrInvalidConfigData
	}
	config.UpdatedBy = updaterID

	saved, err := s.configs.Upsert(ctx, config)
	if err != nil {
		return nil, err
	}

	if s.evaluator != nil {
		s.evaluator.Invalidate(saved.TenantID)
	}
	s.eventBus.Publish(ctx, util.EventAgentConfigUpdated, *saved)

	logger.Info("Agent config updated",
		zap.String("tenantID", saved.TenantID),
		zap.Bool("enabled", saved.Enabled),
		zap.String("updatedBy", updaterID))
	return saved, nil
}

// applyConfigDefaults fills unset numeric fields so a partial PUT cannot
// zero out the schedule.
func applyConfigDefaults(config *model.AgentConfiguration) {
	if config.InventoryCheckFrequency == 0 {
		config.InventoryCheckFrequency = 24
	}
	if config.ForecastFrequency == 0 {
		config.ForecastFrequency = 168
	}
	if config.AdvanceOrderDays == 0 {
		config.AdvanceOrderDays = 30
	}
	if config.MinConfidence == 0 {
		config.MinConfidence = 0.7
	}
}
