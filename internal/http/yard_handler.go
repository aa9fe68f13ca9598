package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/response"
	"yard-service/internal/service"
)

func (h *Handler) listBays(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	bays, err := h.yardService.ListBays(c.Request.Context(), principal, service.ListBaysInput{
		Status:          c.Query("status"),
		IncludeInactive: queryBool(c, "includeInactive"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Loading bays retrieved successfully", bays)
}

func (h *Handler) createBay(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		BayNumber string `json:"bayNumber"`
		BayName   string `json:"bayName"`
		Location  string `json:"location"`
		Capacity  int    `json:"capacity"`
	}
	if !bindJSON(c, &req) {
		return
	}

	bay, err := h.yardService.CreateBay(c.Request.Context(), principal, service.CreateBayInput{
		BayNumber: req.BayNumber,
		BayName:   req.BayName,
		Location:  req.Location,
		Capacity:  req.Capacity,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Loading bay created successfully", bay)
}

func (h *Handler) assignBay(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		TruckRequestID     string `json:"truckRequestId"`
		TruckID            string `json:"truckId"`
		DriverID           string `json:"driverId"`
		EstimatedDeparture string `json:"estimatedDeparture"`
		Notes              string `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.yardService.AssignBay(c.Request.Context(), principal, c.Param("id"), service.AssignBayInput{
		TruckRequestID:     req.TruckRequestID,
		TruckID:            req.TruckID,
		DriverID:           req.DriverID,
		EstimatedDeparture: req.EstimatedDeparture,
		Notes:              req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Truck assigned to loading bay successfully", assignment)
}

func (h *Handler) listMovements(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	movements, err := h.yardService.ListMovements(c.Request.Context(), principal, service.ListMovementsInput{
		TruckID:      c.Query("truckId"),
		MovementType: c.Query("movementType"),
		Date:         c.Query("date"),
		Page:         queryInt(c, "page"),
		Limit:        queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Yard movements retrieved successfully", movements)
}

func (h *Handler) recordMovement(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		TruckRequestID string `json:"truckRequestId"`
		TruckID        string `json:"truckId"`
		DriverID       string `json:"driverId"`
		MovementType   string `json:"movementType"`
		FromLocation   string `json:"fromLocation"`
		ToLocation     string `json:"toLocation"`
		LoadingBayID   string `json:"loadingBayId"`
		Notes          string `json:"notes"`
		EstimatedTime  string `json:"estimatedTime"`
	}
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.yardService.RecordMovement(c.Request.Context(), principal, service.RecordMovementInput{
		TruckRequestID: req.TruckRequestID,
		TruckID:        req.TruckID,
		DriverID:       req.DriverID,
		MovementType:   req.MovementType,
		FromLocation:   req.FromLocation,
		ToLocation:     req.ToLocation,
		LoadingBayID:   req.LoadingBayID,
		Notes:          req.Notes,
		EstimatedTime:  req.EstimatedTime,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Yard movement recorded successfully", movement)
}

func (h *Handler) getQueue(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	queue, err := h.yardService.GetQueue(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Yard queue retrieved successfully", queue)
}

func (h *Handler) updateQueue(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		TruckRequestID string `json:"truckRequestId"`
		NewPriority    string `json:"newPriority"`
		Position       *int   `json:"position"`
	}
	if !bindJSON(c, &req) {
		return
	}

	update, err := h.yardService.UpdateQueue(c.Request.Context(), principal, service.UpdateQueueInput{
		TruckRequestID: req.TruckRequestID,
		NewPriority:    req.NewPriority,
		Position:       req.Position,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Queue updated successfully", update)
}
