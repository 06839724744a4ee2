// service/services.go
package service

import (
	"gorm.io/gorm"

	"github.com/stonefield/resourcing/access"
	"github.com/stonefield/resourcing/audit"
	"github.com/stonefield/resourcing/dao"
	"github.com/stonefield/resourcing/util"
)

type Services struct {
	Resource IResourceService
	Request  IRequestService
	Forecast IForecastService
	Monitor  IMonitorService
	Advance  IAdvanceOrderService
	Config   IAgentConfigService
	Summary  ISummaryService

	Evaluator *access.Evaluator
}

func InitializeServices(
	gormDB *gorm.DB,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	usageWindowDays int,
) (*Services, error) {
	resourceDAO := dao.NewResourceDAO(gormDB)
	usageDAO := dao.NewUsageDAO(gormDB)
	requestDAO := dao.NewRequestDAO(gormDB, auditService)
	forecastDAO := dao.NewForecastDAO(gormDB)
	configDAO := dao.NewAgentConfigDAO(gormDB)

	evaluator := access.NewEvaluator(configDAO, 256)

	requestSvc := NewRequestService(requestDAO, resourceDAO, configDAO, validationUtil, notificationSvc, eventBus)
	advanceSvc := NewAdvanceOrderService(evaluator, configDAO, forecastDAO, resourceDAO, requestDAO, notificationSvc)

	services := &Services{
		Resource:  NewResourceService(resourceDAO, usageDAO, validationUtil, cacheService, notificationSvc, eventBus),
		Request:   requestSvc,
		Forecast:  NewForecastService(evaluator, configDAO, resourceDAO, usageDAO, forecastDAO, advanceSvc, eventBus, usageWindowDays),
		Monitor:   NewMonitorService(evaluator, configDAO, resourceDAO, requestDAO, requestSvc, notificationSvc),
		Advance:   advanceSvc,
		Config:    NewAgentConfigService(configDAO, validationUtil, evaluator, eventBus),
		Summary:   NewSummaryService(resourceDAO, requestDAO, usageDAO, usageWindowDays),
		Evaluator: evaluator,
	}

	return services, nil
}
