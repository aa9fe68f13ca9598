package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/response"
	"yard-service/internal/model"
	"yard-service/internal/service"
)

func (h *Handler) listTrucks(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	trucks, err := h.fleetService.ListTrucks(c.Request.Context(), principal, service.ListTrucksInput{
		Status:        c.Query("status"),
		Type:          c.Query("type"),
		AvailableOnly: queryBool(c, "available"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Trucks retrieved successfully", trucks)
}

func (h *Handler) createTruck(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		TruckNumber     string                    `json:"truckNumber"`
		PlateNumber     string                    `json:"plateNumber"`
		Capacity        float64                   `json:"capacity"`
		Type            string                    `json:"type"`
		CurrentLocation string                    `json:"currentLocation"`
		Specifications  model.TruckSpecifications `json:"specifications"`
	}
	if !bindJSON(c, &req) {
		return
	}

	truck, err := h.fleetService.CreateTruck(c.Request.Context(), principal, service.CreateTruckInput{
		TruckNumber:     req.TruckNumber,
		PlateNumber:     req.PlateNumber,
		Capacity:        req.Capacity,
		Type:            req.Type,
		CurrentLocation: req.CurrentLocation,
		Specifications:  req.Specifications,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Truck created successfully", truck)
}

func (h *Handler) listDrivers(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	drivers, err := h.fleetService.ListDrivers(c.Request.Context(), principal, service.ListDriversInput{
		Status:        c.Query("status"),
		AvailableOnly: queryBool(c, "available"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Drivers retrieved successfully", drivers)
}

func (h *Handler) createDriver(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		UserID           string                 `json:"userId"`
		LicenseNumber    string                 `json:"licenseNumber"`
		LicenseExpiry    string                 `json:"licenseExpiry"`
		LicenseType      string                 `json:"licenseType"`
		Phone            string                 `json:"phone"`
		Address          string                 `json:"address"`
		ExperienceYears  int                    `json:"experienceYears"`
		EmergencyContact model.EmergencyContact `json:"emergencyContact"`
	}
	if !bindJSON(c, &req) {
		return
	}

	driver, err := h.fleetService.CreateDriver(c.Request.Context(), principal, service.CreateDriverInput{
		UserID:           req.UserID,
		LicenseNumber:    req.LicenseNumber,
		LicenseExpiry:    req.LicenseExpiry,
		LicenseType:      req.LicenseType,
		Phone:            req.Phone,
		Address:          req.Address,
		ExperienceYears:  req.ExperienceYears,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Driver profile created successfully", driver)
}
