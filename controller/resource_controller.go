// controller/resource_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	agent_errors "github.com/stonefield/resourcing/errors"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/service"
	"github.com/stonefield/resourcing/util"
	helper_util "github.com/stonefield/resourcing/util/helper"
)

type ResourceController struct {
	resourceService service.IResourceService
}

func NewResourceController(resourceService service.IResourceService) *ResourceController {
	return &ResourceController{
		resourceService: resourceService,
	}
}

// RegisterRoutes registers the API routes
func (rc *ResourceController) RegisterRoutes(r *gin.RouterGroup) {
	resources := r.Group("/resources")
	{
		resources.POST("", rc.CreateResource)
		resources.PUT("/:id", rc.UpdateResource)
		resources.DELETE("/:id", rc.DeleteResource)
		resources.GET("/:id", rc.GetResource)
		resources.POST("/search", rc.SearchResources)
		resources.POST("/:id/usage", rc.RecordUsage)
		resources.GET("/:id/usage", rc.ListUsage)
	}
}

// CreateResource endpoint
func (rc *ResourceController) CreateResource(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var resource model.ResourceItem
	if err := c.ShouldBindJSON(&resource); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid resource data", agent_errors.ErrInvalidResourceData)
		return
	}
	resource.TenantID = tenantID
	userID, _ := util.GetUserIDFromContext(c)

	created, err := rc.resourceService.CreateResource(c, resource, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrInvalidResourceData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid resource data", err)
		case agent_errors.ErrDatabaseOperation:
			util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create resource", agent_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateResource endpoint
func (rc *ResourceController) UpdateResource(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var resource model.ResourceItem
	if err := c.ShouldBindJSON(&resource); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid resource data", err)
		return
	}
	resource.ID = c.Param("id")
	resource.TenantID = tenantID
	userID, _ := util.GetUserIDFromContext(c)

	updated, err := rc.resourceService.UpdateResource(c, resource, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrResourceNotFound:
			util.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
		case agent_errors.ErrInvalidResourceData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid resource data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update resource", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteResource endpoint
func (rc *ResourceController) DeleteResource(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	userID, _ := util.GetUserIDFromContext(c)

	if err := rc.resourceService.DeleteResource(c, tenantID, c.Param("id"), userID); err != nil {
		if err == agent_errors.ErrResourceNotFound {
			util.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete resource", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetResource endpoint
func (rc *ResourceController) GetResource(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	resource, err := rc.resourceService.GetResource(c, tenantID, c.Param("id"))
	if err != nil {
		if err == agent_errors.ErrResourceNotFound {
			util.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to get resource", err)
		}
		return
	}

	c.JSON(http.StatusOK, resource)
}

// SearchResources endpoint
func (rc *ResourceController) SearchResources(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var criteria model.ResourceSearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid search criteria", err)
		return
	}
	if criteria.Limit == 0 || criteria.Offset == 0 {
		limit, offset, err := helper_util.GetPaginationParams(c)
		if err == nil {
			if criteria.Limit == 0 {
				criteria.Limit = limit
			}
			if criteria.Offset == 0 {
				criteria.Offset = offset
			}
		}
	}

	resources, err := rc.resourceService.SearchResources(c, tenantID, criteria)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to search resources", err)
		return
	}

	c.JSON(http.StatusOK, resources)
}

// RecordUsage endpoint
func (rc *ResourceController) RecordUsage(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var usage model.ResourceUsage
	if err := c.ShouldBindJSON(&usage); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid usage data", agent_errors.ErrInvalidUsageData)
		return
	}
	usage.TenantID = tenantID
	usage.ResourceID = c.Param("id")
	if usage.UsageDate.IsZero() {
		usage.UsageDate = time.Now()
	}
	userID, _ := util.GetUserIDFromContext(c)

	resource, err := rc.resourceService.RecordUsage(c, usage, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrResourceNotFound:
			util.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
		case agent_errors.ErrInvalidUsageData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid usage data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to record usage", err)
		}
		return
	}

	c.JSON(http.StatusOK, resource)
}

// ListUsage endpoint
func (rc *ResourceController) ListUsage(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	since := time.Now().AddDate(0, 0, -90)
	if raw := c.Query("since"); raw != "" {
		parsed, err := helper_util.ParseDateOnly(raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid since date", err)
			return
		}
		since = parsed
	}

	usage, err := rc.resourceService.ListUsage(c, tenantID, c.Param("id"), since)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list usage", err)
		return
	}

	c.JSON(http.StatusOK, usage)
}
