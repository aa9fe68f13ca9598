package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/response"
	"yard-service/internal/service"
)

func (h *Handler) createRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		LoadID           string   `json:"loadId"`
		LoadDescription  string   `json:"loadDescription"`
		Priority         string   `json:"priority"`
		PickupLocation   string   `json:"pickupLocation"`
		DeliveryLocation string   `json:"deliveryLocation"`
		EstimatedWeight  *float64 `json:"estimatedWeight"`
		RequiredTime     string   `json:"requiredTime"`
		Notes            string   `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), principal, service.CreateRequestInput{
		LoadID:           req.LoadID,
		LoadDescription:  req.LoadDescription,
		Priority:         req.Priority,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		EstimatedWeight:  req.EstimatedWeight,
		RequiredTime:     req.RequiredTime,
		Notes:            req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Truck request created successfully", request)
}

func (h *Handler) listRequests(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	page, err := h.requestService.List(c.Request.Context(), principal, service.ListRequestsInput{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Truck requests retrieved successfully", page)
}

func (h *Handler) getRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	request, err := h.requestService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Truck request retrieved successfully", request)
}

func (h *Handler) assignRequest(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		TruckID  string `json:"truckId"`
		DriverID string `json:"driverId"`
		Notes    string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.requestService.Assign(c.Request.Context(), principal, c.Param("id"), service.AssignTruckInput{
		TruckID:  req.TruckID,
		DriverID: req.DriverID,
		Notes:    req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Truck assigned successfully", request)
}

func (h *Handler) updateRequestStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.requestService.UpdateStatus(c.Request.Context(), principal, c.Param("id"), service.UpdateStatusInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Truck request status updated successfully", change)
}
