// controller/forecast_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	agent_errors "github.com/stonefield/resourcing/errors"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/service"
	"github.com/stonefield/resourcing/util"
	helper_util "github.com/stonefield/resourcing/util/helper"
)

type ForecastController struct {
	forecastService service.IForecastService
}

func NewForecastController(forecastService service.IForecastService) *ForecastController {
	return &ForecastController{
		forecastService: forecastService,
	}
}

// RegisterRoutes registers the API routes
func (fc *ForecastController) RegisterRoutes(r *gin.RouterGroup) {
	forecasts := r.Group("/forecasts")
	{
		forecasts.GET("/:id", fc.GetForecast)
		forecasts.POST("/search", fc.SearchForecasts)
	}
}

// GetForecast endpoint
func (fc *ForecastController) GetForecast(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	forecast, err := fc.forecastService.GetForecast(c, tenantID, c.Param("id"))
	if err != nil {
		if err == agent_errors.ErrForecastNotFound {
			util.RespondWithError(c, http.StatusNotFound, "Forecast not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to get forecast", err)
		}
		return
	}

	c.JSON(http.StatusOK, forecast)
}

// SearchForecasts endpoint
func (fc *ForecastController) SearchForecasts(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var criteria model.ForecastSearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid search criteria", err)
		return
	}
	if criteria.Limit == 0 {
		if limit, offset, err := helper_util.GetPaginationParams(c); err == nil {
			criteria.Limit = limit
			criteria.Offset = offset
		}
	}

	forecasts, err := fc.forecastService.SearchForecasts(c, tenantID, criteria)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to search forecasts", err)
		return
	}

	c.JSON(http.StatusOK, forecasts)
}
