package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
)

const defaultRequestPageLimit = 10

type RequestService struct {
	repo     *repository.Repository
	notifier *Notifier
	now      func() time.Time
}

func NewRequestService(repo *repository.Repository, notifier *Notifier) *RequestService {
	return &RequestService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

type CreateRequestInput struct {
	LoadID           string
	LoadDescription  string
	Priority         string
	PickupLocation   string
	DeliveryLocation string
	EstimatedWeight  *float64
	RequiredTime     string
	Notes            string
}

func (s *RequestService) Create(ctx context.Context, principal model.Principal, input CreateRequestInput) (*model.TruckRequest, error) {
	if err := Authorize(principal, OpRequestCreate); err != nil {
		return nil, err
	}

	loadID := strings.TrimSpace(input.LoadID)
	description := strings.TrimSpace(input.LoadDescription)
	pickup := strings.TrimSpace(input.PickupLocation)
	delivery := strings.TrimSpace(input.DeliveryLocation)
	if loadID == "" || description == "" || pickup == "" || delivery == "" {
		return nil, invalidInput("loadId, loadDescription, pickupLocation and deliveryLocation are required")
	}

	priority := model.PriorityNormal
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		priority = model.Priority(strings.ToLower(raw))
		if !priority.Valid() {
			return nil, invalidInput("priority must be one of low, normal, high, urgent")
		}
	}

	if input.EstimatedWeight != nil && *input.EstimatedWeight < 0 {
		return nil, invalidInput("estimatedWeight must not be negative")
	}

	requiredTime, err := parseOptionalTime(input.RequiredTime, "requiredTime")
	if err != nil {
		return nil, err
	}

	request := &model.TruckRequest{
		RequesterID:      principal.UserID,
		LoadID:           loadID,
		LoadDescription:  description,
		Priority:         priority,
		PickupLocation:   pickup,
		DeliveryLocation: delivery,
		EstimatedWeight:  input.EstimatedWeight,
		RequestedTime:    s.now(),
		RequiredTime:     requiredTime,
		Status:           model.RequestStatusPending,
		Notes:            strings.TrimSpace(input.Notes),
	}

	if err := s.repo.Requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.notifier.NotifyRoles(ctx, dispatchRoles, model.Notification{
		SenderID: &principal.UserID,
		Type:     model.NotificationTypeTruckRequest,
		Title:    "New Truck Request",
		Message: fmt.Sprintf("New %s priority request for load %s from %s to %s",
			priority, loadID, pickup, delivery),
		Data: datatypes.NewJSONType(model.NotificationData{
			TruckRequestID: &request.ID,
			Status:         request.Status,
			Priority:       priority,
			ActionURL:      model.RequestActionURL(request.ID),
		}),
	})

	return request, nil
}

func (s *RequestService) Get(ctx context.Context, principal model.Principal, id string) (*model.TruckRequest, error) {
	if err := Authorize(principal, OpRequestList); err != nil {
		return nil, err
	}

	requestID, err := parseID(id, "truck request id")
	if err != nil {
		return nil, err
	}

	request, err := s.repo.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, lookupErr(err, "Truck request")
	}

	if !canViewRequest(principal, request) {
		return nil, ErrPermissionDenied
	}

	return request, nil
}

type ListRequestsInput struct {
	Status   string
	Priority string
	Page     int
	Limit    int
}

type RequestPage struct {
	Requests   []model.TruckRequest `json:"requests"`
	Pagination Page                 `json:"pagination"`
}

func (s *RequestService) List(ctx context.Context, principal model.Principal, input ListRequestsInput) (*RequestPage, error) {
	if err := Authorize(principal, OpRequestList); err != nil {
		return nil, err
	}

	filter := repository.RequestFilter{
		Pagination: pagination(input.Page, input.Limit, defaultRequestPageLimit),
	}

	switch {
	case principal.IsLoader():
		filter.RequesterID = &principal.UserID
	case principal.IsDriver():
		filter.DriverID = &principal.UserID
	}

	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := model.RequestStatus(strings.ToLower(raw))
		if !status.Valid() {
			return nil, invalidInput("unknown status %q", raw)
		}
		filter.Statuses = []model.RequestStatus{status}
	}
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		priority := model.Priority(strings.ToLower(raw))
		if !priority.Valid() {
			return nil, invalidInput("unknown priority %q", raw)
		}
		filter.Priority = &priority
	}

	requests, total, err := s.repo.Requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &RequestPage{
		Requests:   requests,
		Pagination: newPage(filter.Pagination, total),
	}, nil
}

type AssignTruckInput struct {
	TruckID  string
	DriverID string
	Notes    string
}

// Assign binds an available truck and driver to a pending request. The request,
// truck and driver profile are updated in one transaction.
func (s *RequestService) Assign(ctx context.Context, principal model.Principal, id string, input AssignTruckInput) (*model.TruckRequest, error) {
	if err := Authorize(principal, OpRequestAssign); err != nil {
		return nil, err
	}

	requestID, err := parseID(id, "truck request id")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TruckID) == "" || strings.TrimSpace(input.DriverID) == "" {
		return nil, invalidInput("truckId and driverId are required")
	}
	truckID, err := parseID(input.TruckID, "truckId")
	if err != nil {
		return nil, err
	}
	driverID, err := parseID(input.DriverID, "driverId")
	if err != nil {
		return nil, err
	}

	var (
		assigned *model.TruckRequest
		truck    *model.Truck
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		request, err := tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Truck request")
		}
		if request.Status != model.RequestStatusPending {
			return fmt.Errorf("%w: can only assign trucks to pending requests", ErrInvalidTransition)
		}

		truck, err = tx.Trucks.GetByID(ctx, truckID)
		if err != nil {
			return lookupErr(err, "Truck")
		}
		if !truck.IsAvailable() {
			return fmt.Errorf("truck %s is %s: %w", truck.TruckNumber, truck.Status, ErrUnavailable)
		}

		if _, err := tx.Users.GetByID(ctx, driverID); err != nil {
			return lookupErr(err, "Driver")
		}
		driver, err := tx.Drivers.GetByUserID(ctx, driverID)
		if err != nil {
			return lookupErr(err, "Driver profile")
		}
		if !driver.IsAvailable() {
			return fmt.Errorf("driver is %s: %w", driver.Status, ErrUnavailable)
		}

		request.Assign(model.AssignedTruck{
			TruckID:    truckID,
			DriverID:   driverID,
			AssignedAt: s.now(),
			AssignedBy: principal.UserID,
		})
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			request.Notes = notes
		}
		truck.Assign(driverID, request.ID)
		driver.AssignTruck(truckID)

		if err := tx.Requests.Update(ctx, request); err != nil {
			return err
		}
		if err := tx.Trucks.Update(ctx, truck); err != nil {
			return err
		}
		if err := tx.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		assigned = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := model.NotificationData{
		TruckRequestID: &assigned.ID,
		TruckID:        &truckID,
		Status:         assigned.Status,
		Priority:       assigned.Priority,
		ActionURL:      model.RequestActionURL(assigned.ID),
	}
	s.notifier.Notify(ctx,
		newNotification(assigned.RequesterID, principal.UserID, model.NotificationTypeAssignment,
			"Truck Assigned to Your Request",
			fmt.Sprintf("Truck %s has been assigned to your request for load %s", truck.TruckNumber, assigned.LoadID),
			data),
		newNotification(driverID, principal.UserID, model.NotificationTypeAssignment,
			"New Truck Assignment",
			fmt.Sprintf("You have been assigned truck %s for load %s from %s to %s",
				truck.TruckNumber, assigned.LoadID, assigned.PickupLocation, assigned.DeliveryLocation),
			data),
	)

	return assigned, nil
}

type UpdateStatusInput struct {
	Status string
	Notes  string
}

type StatusChange struct {
	*model.TruckRequest
	OldStatus model.RequestStatus `json:"oldStatus"`
	NewStatus model.RequestStatus `json:"newStatus"`
}

func (s *RequestService) UpdateStatus(ctx context.Context, principal model.Principal, id string, input UpdateStatusInput) (*StatusChange, error) {
	if err := Authorize(principal, OpRequestUpdateStatus); err != nil {
		return nil, err
	}

	requestID, err := parseID(id, "truck request id")
	if err != nil {
		return nil, err
	}

	status := model.RequestStatus(strings.ToLower(strings.TrimSpace(input.Status)))
	if !status.Valid() {
		return nil, invalidInput("status must be one of pending, assigned, in_progress, completed, cancelled")
	}

	var change *StatusChange
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		request, err := tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Truck request")
		}
		if principal.IsLoader() && request.RequesterID != principal.UserID {
			return ErrPermissionDenied
		}

		oldStatus := request.Status
		if err := transitionRequest(ctx, tx, request, status); err != nil {
			return err
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			request.Notes = notes
		}
		if err := tx.Requests.Update(ctx, request); err != nil {
			return err
		}

		change = &StatusChange{TruckRequest: request, OldStatus: oldStatus, NewStatus: status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, newNotification(change.RequesterID, principal.UserID, model.NotificationTypeStatusUpdate,
		"Request Status Updated",
		fmt.Sprintf("Your truck request for load %s is now %s", change.LoadID, strings.ReplaceAll(string(status), "_", " ")),
		model.NotificationData{
			TruckRequestID: &change.ID,
			Status:         status,
			Priority:       change.Priority,
			ActionURL:      model.RequestActionURL(change.ID),
		}))

	return change, nil
}

func canViewRequest(principal model.Principal, request *model.TruckRequest) bool {
	switch {
	case principal.IsLoader():
		return request.RequesterID == principal.UserID
	case principal.IsDriver():
		return request.AssignedTruck != nil && request.AssignedTruck.DriverID == principal.UserID
	default:
		return true
	}
}

// transitionRequest sets the request status and keeps the assigned truck and driver
// consistent with it. The caller persists the request.
func transitionRequest(ctx context.Context, tx *repository.Repository, request *model.TruckRequest, status model.RequestStatus) error {
	if status.RequiresAssignment() && !request.HasAssignment() {
		return fmt.Errorf("%w: request has no assigned truck", ErrInvalidTransition)
	}

	switch status {
	case model.RequestStatusPending, model.RequestStatusCancelled:
		if request.HasAssignment() {
			if err := releaseAssignment(ctx, tx, request); err != nil {
				return err
			}
			request.ClearAssignment()
		}
	case model.RequestStatusAssigned, model.RequestStatusInProgress:
		truck, driver, err := claimAssignment(ctx, tx, request)
		if err != nil {
			return err
		}
		driver.Status = model.DriverStatusAssigned
		if status == model.RequestStatusInProgress {
			driver.Status = model.DriverStatusOnTrip
		}
		if err := tx.Trucks.Update(ctx, truck); err != nil {
			return err
		}
		if err := tx.Drivers.Update(ctx, driver); err != nil {
			return err
		}
	case model.RequestStatusCompleted:
		if err := releaseAssignment(ctx, tx, request); err != nil {
			return err
		}
	}

	request.Status = status
	return nil
}

// claimAssignment returns the request's truck and driver bound to it. A request that
// already holds its truck keeps it; one that let it go (a completed request being reopened)
// may only take it back while the truck and driver are both free.
func claimAssignment(ctx context.Context, tx *repository.Repository, request *model.TruckRequest) (*model.Truck, *model.DriverProfile, error) {
	assignment := request.AssignedTruck

	truck, err := tx.Trucks.GetByID(ctx, assignment.TruckID)
	if err != nil {
		return nil, nil, lookupErr(err, "Truck")
	}
	driver, err := tx.Drivers.GetByUserID(ctx, assignment.DriverID)
	if err != nil {
		return nil, nil, lookupErr(err, "Driver profile")
	}

	if truck.CurrentRequestID != nil {
		if *truck.CurrentRequestID != request.ID {
			return nil, nil, fmt.Errorf("%w: truck %s is held by another request", ErrInvalidTransition, truck.TruckNumber)
		}
		if driver.CurrentTruckID == nil || *driver.CurrentTruckID != truck.ID {
			return nil, nil, fmt.Errorf("driver is no longer on truck %s: %w", truck.TruckNumber, ErrUnavailable)
		}
		return truck, driver, nil
	}

	if !truck.IsAvailable() {
		return nil, nil, fmt.Errorf("truck %s is %s: %w", truck.TruckNumber, truck.Status, ErrUnavailable)
	}
	if !driver.IsAvailable() {
		return nil, nil, fmt.Errorf("driver is %s: %w", driver.Status, ErrUnavailable)
	}
	truck.Assign(assignment.DriverID, request.ID)
	driver.AssignTruck(truck.ID)
	return truck, driver, nil
}

// releaseAssignment frees the truck and driver still bound to request. Records that
// have moved on to other work are left untouched.
func releaseAssignment(ctx context.Context, tx *repository.Repository, request *model.TruckRequest) error {
	assignment := request.AssignedTruck
	if assignment == nil {
		return nil
	}

	truck, err := tx.Trucks.GetByID(ctx, assignment.TruckID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return err
	case truck.CurrentRequestID != nil && *truck.CurrentRequestID == request.ID:
		truck.Release()
		if err := tx.Trucks.Update(ctx, truck); err != nil {
			return err
		}
	}

	return updateAssignedDriver(ctx, tx, request, func(driver *model.DriverProfile) {
		driver.Release()
	})
}

func updateAssignedDriver(ctx context.Context, tx *repository.Repository, request *model.TruckRequest, mutate func(*model.DriverProfile)) error {
	assignment := request.AssignedTruck
	if assignment == nil {
		return nil
	}

	driver, err := tx.Drivers.GetByUserID(ctx, assignment.DriverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if driver.CurrentTruckID == nil || *driver.CurrentTruckID != assignment.TruckID {
		return nil
	}

	mutate(driver)
	return tx.Drivers.Update(ctx, driver)
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
