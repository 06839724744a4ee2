// controller/agent_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stonefield/resourcing/audit"
	agent_errors "github.com/stonefield/resourcing/errors"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/service"
	"github.com/stonefield/resourcing/util"
	helper_util "github.com/stonefield/resourcing/util/helper"
)

// AgentController exposes the engine itself: per-tenant configuration,
// manual job triggers, the audit trail and the dashboard aggregates.
type AgentController struct {
	configService   service.IAgentConfigService
	monitorService  service.IMonitorService
	forecastService service.IForecastService
	summaryService  service.ISummaryService
	auditService    audit.Service
}

func NewAgentController(configService service.IAgentConfigService, monitorService service.IMonitorService, forecastService service.IForecastService, summaryService service.ISummaryService, auditService audit.Service) *AgentController {
	return &AgentController{
		configService:   configService,
		monitorService:  monitorService,
		forecastService: forecastService,
		summaryService:  summaryService,
		auditService:    auditService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AgentController) RegisterRoutes(r *gin.RouterGroup) {
	agent := r.Group("/agent")
	{
		agent.GET("/config", ac.GetConfig)
		agent.PUT("/config", ac.UpdateConfig)
		agent.POST("/inventory-check", ac.TriggerInventoryCheck)
		agent.POST("/forecast-run", ac.TriggerForecastRun)
		agent.GET("/summary", ac.GetSummary)
		agent.GET("/suggestions", ac.GetSuggestions)
		agent.GET("/audit", ac.QueryAuditTrail)
	}
}

// GetConfig endpoint
func (ac *AgentController) GetConfig(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	config, err := ac.configService.GetConfig(c, tenantID)
	if err != nil {
		if err == agent_errors.ErrConfigNotFound {
			util.RespondWithError(c, http.StatusNotFound, "Agent configuration not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to get agent configuration", err)
		}
		return
	}

	c.JSON(http.StatusOK, config)
}

// UpdateConfig endpoint
func (ac *AgentController) UpdateConfig(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var config model.AgentConfiguration
	if err := c.ShouldBindJSON(&config); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid configuration data", agent_errors.ErrInvalidConfigData)
		return
	}
	config.TenantID = tenantID
	userID, _ := util.GetUserIDFromContext(c)

	saved, err := ac.configService.UpdateConfig(c, config, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrInvalidConfigData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid configuration data", err)
		case agent_errors.ErrDatabaseOperation:
			util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update agent configuration", agent_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, saved)
}

// TriggerInventoryCheck endpoint, runs the check synchronously
func (ac *AgentController) TriggerInventoryCheck(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	if err := ac.monitorService.RunInventoryCheck(c, tenantID); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Inventory check failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// TriggerForecastRun endpoint, runs forecasting synchronously
func (ac *AgentController) TriggerForecastRun(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	if err := ac.forecastService.GenerateForecasts(c, tenantID); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Forecast run failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// GetSummary endpoint
func (ac *AgentController) GetSummary(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	summary, err := ac.summaryService.InventorySummary(c, tenantID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to build inventory summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetSuggestions endpoint
func (ac *AgentController) GetSuggestions(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	suggestions, err := ac.summaryService.OptimizationSuggestions(c, tenantID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to build suggestions", err)
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// QueryAuditTrail endpoint. Defaults to the last 7 days when no range is given.
func (ac *AgentController) QueryAuditTrail(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -7)
	if s := c.Query("from"); s != "" {
		if from, err = helper_util.ParseDateOnly(s); err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid from date", err)
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = helper_util.ParseDateOnly(s); err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid to date", err)
			return
		}
	}

	entries, err := ac.auditService.QueryEntries(c, from, to, tenantID, c.Query("request_id"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query audit trail", err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
