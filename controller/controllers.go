// controller/controllers.go
package controller

import (
	"github.com/stonefield/resourcing/audit"
	"github.com/stonefield/resourcing/service"
)

type Controllers struct {
	Resource *ResourceController
	Request  *RequestController
	Forecast *ForecastController
	Agent    *AgentController
}

func InitializeControllers(services *service.Services, auditService audit.Service) *Controllers {
	return &Controllers{
		Resource: NewResourceController(services.Resource),
		Request:  NewRequestController(services.Request),
		Forecast: NewForecastController(services.Forecast),
		Agent:    NewAgentController(services.Config, services.Monitor, services.Forecast, services.Summary, auditService),
	}
}
