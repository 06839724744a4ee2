// errors/agent_errors.go

package errors

import "errors"

var (
	ErrForecastNotFound    = errors.New("forecast not found")
	ErrInvalidForecastData = errors.New("invalid forecast data")

	ErrConfigNotFound    = errors.New("agent configuration not found")
	ErrInvalidConfigData = errors.New("invalid agent configuration data")
	ErrAgentDisabled     = errors.New("replenishment agent disabled for tenant")
)
