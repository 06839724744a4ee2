// controller/request_controller.go
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

type RequestController struct {
	requestService service.IRequestService
}

func NewRequestController(requestService service.IRequestService) *RequestController {
	return &RequestController{
		requestService: requestService,
	}
}

// RegisterRoutes registers the API routes
func (rc *RequestController) RegisterRoutes(r *gin.RouterGroup) {
	requests := r.Group("/requests")
	{
		requests.POST("", rc.CreateRequest)
		requests.PUT("/:id", rc.UpdateRequest)
		requests.GET("/:id", rc.GetRequest)
		requests.POST("/search", rc.SearchRequests)
		requests.POST("/:id/submit", rc.transitionTo(model.RequestStatusPending))
		requests.POST("/:id/approve", rc.transitionTo(model.RequestStatusApproved))
		requests.POST("/:id/reject", rc.transitionTo(model.RequestStatusRejected))
		requests.POST("/:id/cancel", rc.transitionTo(model.RequestStatusCanceled))
		requests.POST("/:id/fulfill", rc.transitionTo(model.RequestStatusFulfilled))
		requests.POST("/:id/order", rc.MarkOrdered)
		requests.POST("/:id/receive", rc.ReceiveDelivery)
	}
}

// CreateRequest endpoint
func (rc *RequestController) CreateRequest(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var request model.ResourceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", agent_errors.ErrInvalidRequestData)
		return
	}
	request.TenantID = tenantID
	userID, _ := util.GetUserIDFromContext(c)

	created, err := rc.requestService.CreateRequest(c, request, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrInvalidRequestData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		case agent_errors.ErrRequestConflict:
			util.RespondWithError(c, http.StatusConflict, "Request already exists", err)
		case agent_errors.ErrDatabaseOperation:
			util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create request", agent_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateRequest endpoint, draft requests only
func (rc *RequestController) UpdateRequest(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var request model.ResourceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}
	request.ID = c.Param("id")
	request.TenantID = tenantID
	userID, _ := util.GetUserIDFromContext(c)

	updated, err := rc.requestService.UpdateRequest(c, request, userID)
	if err != nil {
		switch err {
		case agent_errors.ErrRequestNotFound:
			util.RespondWithError(c, http.StatusNotFound, "Request not found", err)
		case agent_errors.ErrRequestNotEditable:
			util.RespondWithError(c, http.StatusConflict, "Request is no longer editable", err)
		case agent_errors.ErrInvalidRequestData:
			util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update request", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetRequest endpoint
func (rc *RequestController) GetRequest(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}

	request, err := rc.requestService.GetRequest(c, tenantID, c.Param("id"))
	if err != nil {
		if err == agent_errors.ErrRequestNotFound {
			util.RespondWithError(c, http.StatusNotFound, "Request not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to get request", err)
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// SearchRequests endpoint
func (rc *RequestController) SearchRequests(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var criteria model.RequestSearchCriteria
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

	requests, err := rc.requestService.SearchRequests(c, tenantID, criteria)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to search requests", err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// transitionBody carries the optional note of a transition endpoint.
type transitionBody struct {
	Note string `json:"note"`
}

// transitionTo builds a handler that applies one state machine edge.
func (rc *RequestController) transitionTo(newStatus string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := util.GetTenantIDFromContext(c)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
			return
		}
		var body transitionBody
		_ = c.ShouldBindJSON(&body)
		userID, _ := util.GetUserIDFromContext(c)

		request, err := rc.requestService.Transition(c, tenantID, c.Param("id"), newStatus, userID, body.Note)
		if err != nil {
			respondTransitionError(c, err)
			return
		}

		c.JSON(http.StatusOK, request)
	}
}

// MarkOrdered endpoint, approved requests only
func (rc *RequestController) MarkOrdered(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var details service.OrderDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid order details", err)
		return
	}
	userID, _ := util.GetUserIDFromContext(c)

	request, err := rc.requestService.MarkOrdered(c, tenantID, c.Param("id"), userID, details)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ReceiveDelivery endpoint
func (rc *RequestController) ReceiveDelivery(c *gin.Context) {
	tenantID, err := util.GetTenantIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Tenant is required", err)
		return
	}
	var body struct {
		Items []model.ReceivedItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Items) == 0 {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid delivery data", agent_errors.ErrInvalidRequestData)
		return
	}
	userID, _ := util.GetUserIDFromContext(c)

	request, err := rc.requestService.ReceiveDelivery(c, tenantID, c.Param("id"), userID, body.Items)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func respondTransitionError(c *gin.Context, err error) {
	switch err {
	case agent_errors.ErrRequestNotFound:
		util.RespondWithError(c, http.StatusNotFound, "Request not found", err)
	case agent_errors.ErrInvalidTransition:
		util.RespondWithError(c, http.StatusConflict, "Transition not allowed from current status", err)
	case agent_errors.ErrRequestConflict:
		util.RespondWithError(c, http.StatusConflict, "Request changed concurrently", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to update request status", err)
	}
}
