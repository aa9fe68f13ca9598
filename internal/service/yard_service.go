package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
	"yard-service/internal/utils"
)

const (
	defaultMovementPageLimit = 20
	recentMovementsLimit     = 10
	yardQueueLocation        = "Yard Queue"
)

type YardService struct {
	repo     *repository.Repository
	notifier *Notifier
	now      func() time.Time
}

func NewYardService(repo *repository.Repository, notifier *Notifier) *YardService {
	return &YardService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

type ListBaysInput struct {
	Status          string
	IncludeInactive bool
}

type BayList struct {
	Bays            []model.LoadingBay        `json:"bays"`
	Total           int                       `json:"total"`
	StatusBreakdown map[model.BayStatus]int64 `json:"statusBreakdown"`
}

func (s *YardService) ListBays(ctx context.Context, principal model.Principal, input ListBaysInput) (*BayList, error) {
	if err := Authorize(principal, OpBayList); err != nil {
		return nil, err
	}

	filter := repository.BayFilter{}
	if !input.IncludeInactive {
		active := true
		filter.IsActive = &active
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status := model.BayStatus(strings.ToLower(raw))
		if !status.Valid() {
			return nil, invalidInput("unknown bay status %q", raw)
		}
		filter.Status = &status
	}

	bays, err := s.repo.Bays.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.repo.Bays.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &BayList{Bays: bays, Total: len(bays), StatusBreakdown: breakdown}, nil
}

type CreateBayInput struct {
	BayNumber string
	BayName   string
	Location  string
	Capacity  int
}

func (s *YardService) CreateBay(ctx context.Context, principal model.Principal, input CreateBayInput) (*model.LoadingBay, error) {
	if err := Authorize(principal, OpBayCreate); err != nil {
		return nil, err
	}

	number := utils.NormalizeCode(input.BayNumber)
	name := strings.TrimSpace(input.BayName)
	location := strings.TrimSpace(input.Location)
	if number == "" || name == "" || location == "" {
		return nil, invalidInput("bayNumber, bayName and location are required")
	}
	if input.Capacity < 0 {
		return nil, invalidInput("capacity must not be negative")
	}

	if _, err := s.repo.Bays.GetByNumber(ctx, number); err == nil {
		return nil, conflict("loading bay %s already exists", number)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bay := &model.LoadingBay{
		BayNumber: number,
		BayName:   name,
		Location:  location,
		Capacity:  input.Capacity,
		Status:    model.BayStatusAvailable,
		IsActive:  true,
	}
	if err := s.repo.Bays.Create(ctx, bay); err != nil {
		return nil, createErr(err, "loading bay %s already exists", number)
	}

	return bay, nil
}

type AssignBayInput struct {
	TruckRequestID     string
	TruckID            string
	DriverID           string
	EstimatedDeparture string
	Notes              string
}

type BayAssignment struct {
	Bay      *model.LoadingBay   `json:"bay"`
	Movement *model.YardMovement `json:"movement"`
}

// AssignBay parks a truck in a free loading bay and logs a bay_assigned movement.
func (s *YardService) AssignBay(ctx context.Context, principal model.Principal, bayID string, input AssignBayInput) (*BayAssignment, error) {
	if err := Authorize(principal, OpBayAssign); err != nil {
		return nil, err
	}

	id, err := parseID(bayID, "loading bay id")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TruckRequestID) == "" || strings.TrimSpace(input.TruckID) == "" || strings.TrimSpace(input.DriverID) == "" {
		return nil, invalidInput("truckRequestId, truckId and driverId are required")
	}
	requestID, err := parseID(input.TruckRequestID, "truckRequestId")
	if err != nil {
		return nil, err
	}
	truckID, err := parseID(input.TruckID, "truckId")
	if err != nil {
		return nil, err
	}
	driverID, err := parseID(input.DriverID, "driverId")
	if err != nil {
		return nil, err
	}
	estimatedDeparture, err := parseOptionalTime(input.EstimatedDeparture, "estimatedDeparture")
	if err != nil {
		return nil, err
	}

	var (
		result  *BayAssignment
		request *model.TruckRequest
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		bay, err := tx.Bays.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Loading bay")
		}
		if bay.IsOccupied() {
			return ErrBayOccupied
		}

		request, err = tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Truck request")
		}
		if _, err := tx.Users.GetByID(ctx, driverID); err != nil {
			return lookupErr(err, "Driver")
		}

		now := s.now()
		bay.Occupy(model.BayTruck{
			TruckID:            truckID,
			DriverID:           driverID,
			AssignedAt:         now,
			EstimatedDeparture: estimatedDeparture,
		}, principal.UserID)
		if err := tx.Bays.Update(ctx, bay); err != nil {
			return err
		}

		movement := &model.YardMovement{
			TruckRequestID: requestID,
			TruckID:        &truckID,
			DriverID:       &driverID,
			MovementType:   model.MovementTypeBayAssigned,
			FromLocation:   yardQueueLocation,
			ToLocation:     "Bay " + bay.BayNumber,
			LoadingBayID:   &bay.ID,
			SwitcherID:     principal.UserID,
			Notes:          strings.TrimSpace(input.Notes),
			EstimatedTime:  estimatedDeparture,
			ActualTime:     now,
		}
		if err := tx.Movements.Create(ctx, movement); err != nil {
			return err
		}

		result = &BayAssignment{Bay: bay, Movement: movement}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bay := result.Bay
	data := model.NotificationData{
		TruckRequestID: &requestID,
		TruckID:        &truckID,
		BayID:          &bay.ID,
		BayNumber:      bay.BayNumber,
		Location:       bay.Location,
		ActionURL:      model.RequestActionURL(requestID),
	}
	s.notifier.Notify(ctx,
		newNotification(request.RequesterID, principal.UserID, model.NotificationTypeAssignment,
			"Truck Assigned to Loading Bay",
			fmt.Sprintf("Your truck has been assigned to bay %s (%s)", bay.BayNumber, bay.Location),
			data),
		newNotification(driverID, principal.UserID, model.NotificationTypeAssignment,
			"Proceed to Loading Bay",
			fmt.Sprintf("Please proceed to bay %s at %s", bay.BayNumber, bay.Location),
			data),
	)

	return result, nil
}

type ListMovementsInput struct {
	TruckID      string
	MovementType string
	Date         string
	Page         int
	Limit        int
}

type MovementList struct {
	Movements     []model.YardMovement         `json:"movements"`
	Pagination    Page                         `json:"pagination"`
	TypeBreakdown map[model.MovementType]int64 `json:"typeBreakdown"`
}

func (s *YardService) ListMovements(ctx context.Context, principal model.Principal, input ListMovementsInput) (*MovementList, error) {
	if err := Authorize(principal, OpMovementList); err != nil {
		return nil, err
	}

	filter := repository.MovementFilter{
		Pagination: pagination(input.Page, input.Limit, defaultMovementPageLimit),
	}
	if principal.IsSwitcher() {
		filter.SwitcherID = &principal.UserID
	}

	truckID, err := parseOptionalID(input.TruckID, "truckId")
	if err != nil {
		return nil, err
	}
	filter.TruckID = truckID

	if raw := strings.TrimSpace(input.MovementType); raw != "" {
		movementType := model.MovementType(strings.ToLower(raw))
		if !movementType.Valid() {
			return nil, invalidInput("unknown movement type %q", raw)
		}
		filter.MovementType = &movementType
	}

	day, err := parseOptionalTime(input.Date, "date")
	if err != nil {
		return nil, err
	}
	if day != nil {
		from := startOfDay(*day)
		to := from.Add(24 * time.Hour)
		filter.From = &from
		filter.To = &to
	}

	movements, total, err := s.repo.Movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	breakdownFilter := filter
	breakdownFilter.Pagination = repository.Pagination{}
	breakdown, err := s.repo.Movements.CountByType(ctx, breakdownFilter)
	if err != nil {
		return nil, err
	}

	return &MovementList{
		Movements:     movements,
		Pagination:    newPage(filter.Pagination, total),
		TypeBreakdown: breakdown,
	}, nil
}

type RecordMovementInput struct {
	TruckRequestID string
	TruckID        string
	DriverID       string
	MovementType   string
	FromLocation   string
	ToLocation     string
	LoadingBayID   string
	Notes          string
	EstimatedTime  string
}

// RecordMovement appends a movement. A departure also frees the bay it names and
// completes the request, releasing its truck and driver.
func (s *YardService) RecordMovement(ctx context.Context, principal model.Principal, input RecordMovementInput) (*model.YardMovement, error) {
	if err := Authorize(principal, OpMovementRecord); err != nil {
		return nil, err
	}

	toLocation := strings.TrimSpace(input.ToLocation)
	if strings.TrimSpace(input.TruckRequestID) == "" || strings.TrimSpace(input.TruckID) == "" ||
		strings.TrimSpace(input.DriverID) == "" || strings.TrimSpace(input.MovementType) == "" || toLocation == "" {
		return nil, invalidInput("truckRequestId, truckId, driverId, movementType and toLocation are required")
	}

	movementType := model.MovementType(strings.ToLower(strings.TrimSpace(input.MovementType)))
	if !movementType.Valid() {
		return nil, invalidInput("movementType must be one of entry, queue, bay_assigned, loading, departure")
	}

	requestID, err := parseID(input.TruckRequestID, "truckRequestId")
	if err != nil {
		return nil, err
	}
	truckID, err := parseID(input.TruckID, "truckId")
	if err != nil {
		return nil, err
	}
	driverID, err := parseID(input.DriverID, "driverId")
	if err != nil {
		return nil, err
	}
	bayID, err := parseOptionalID(input.LoadingBayID, "loadingBayId")
	if err != nil {
		return nil, err
	}
	estimatedTime, err := parseOptionalTime(input.EstimatedTime, "estimatedTime")
	if err != nil {
		return nil, err
	}

	var (
		movement *model.YardMovement
		request  *model.TruckRequest
	)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		request, err = tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Truck request")
		}
		if movementType == model.MovementTypeDeparture && !request.HasAssignment() {
			return fmt.Errorf("%w: request has no assigned truck to depart", ErrInvalidTransition)
		}

		movement = &model.YardMovement{
			TruckRequestID: requestID,
			TruckID:        &truckID,
			DriverID:       &driverID,
			MovementType:   movementType,
			FromLocation:   strings.TrimSpace(input.FromLocation),
			ToLocation:     toLocation,
			LoadingBayID:   bayID,
			SwitcherID:     principal.UserID,
			Notes:          strings.TrimSpace(input.Notes),
			EstimatedTime:  estimatedTime,
			ActualTime:     s.now(),
		}
		if err := tx.Movements.Create(ctx, movement); err != nil {
			return err
		}

		if movementType != model.MovementTypeDeparture {
			return nil
		}

		if bayID != nil {
			bay, err := tx.Bays.GetByID(ctx, *bayID)
			if err != nil {
				return lookupErr(err, "Loading bay")
			}
			bay.Release()
			if err := tx.Bays.Update(ctx, bay); err != nil {
				return err
			}
		}

		if err := transitionRequest(ctx, tx, request, model.RequestStatusCompleted); err != nil {
			return err
		}
		return tx.Requests.Update(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	message := "Your truck has moved to " + toLocation
	if movementType == model.MovementTypeDeparture {
		message = "Your truck has departed from the yard"
	}
	s.notifier.Notify(ctx, newNotification(request.RequesterID, principal.UserID, model.NotificationTypeStatusUpdate,
		"Truck Movement Update", message,
		model.NotificationData{
			TruckRequestID: &requestID,
			TruckID:        &truckID,
			BayID:          bayID,
			Status:         request.Status,
			MovementType:   movementType,
			Location:       toLocation,
			ActionURL:      model.RequestActionURL(requestID),
		}))

	return movement, nil
}

type QueueStats struct {
	TotalInQueue   int   `json:"totalInQueue"`
	TotalInLoading int   `json:"totalInLoading"`
	AvailableBays  int   `json:"availableBays"`
	OccupiedBays   int   `json:"occupiedBays"`
	UrgentRequests int64 `json:"urgentRequests"`
}

type YardQueue struct {
	Queue           []model.TruckRequest `json:"queue"`
	InLoading       []model.TruckRequest `json:"inLoading"`
	OccupiedBays    []model.LoadingBay   `json:"occupiedBays"`
	AvailableBays   []model.LoadingBay   `json:"availableBays"`
	RecentMovements []model.YardMovement `json:"recentMovements"`
	Stats           QueueStats           `json:"stats"`
}

func (s *YardService) GetQueue(ctx context.Context, principal model.Principal) (*YardQueue, error) {
	if err := Authorize(principal, OpQueueGet); err != nil {
		return nil, err
	}

	queue, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{
		Statuses:       []model.RequestStatus{model.RequestStatusAssigned},
		SortByPriority: true,
	})
	if err != nil {
		return nil, err
	}

	inLoading, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{
		Statuses: []model.RequestStatus{model.RequestStatusInProgress},
	})
	if err != nil {
		return nil, err
	}

	active := true
	occupiedStatus := model.BayStatusOccupied
	occupied, err := s.repo.Bays.List(ctx, repository.BayFilter{Status: &occupiedStatus, IsActive: &active})
	if err != nil {
		return nil, err
	}
	availableStatus := model.BayStatusAvailable
	available, err := s.repo.Bays.List(ctx, repository.BayFilter{Status: &availableStatus, IsActive: &active})
	if err != nil {
		return nil, err
	}

	recent, _, err := s.repo.Movements.List(ctx, repository.MovementFilter{
		Pagination: repository.Pagination{Page: 1, Limit: recentMovementsLimit},
	})
	if err != nil {
		return nil, err
	}

	var urgent int64
	for _, request := range queue {
		if request.Priority == model.PriorityUrgent {
			urgent++
		}
	}

	return &YardQueue{
		Queue:           queue,
		InLoading:       inLoading,
		OccupiedBays:    occupied,
		AvailableBays:   available,
		RecentMovements: recent,
		Stats: QueueStats{
			TotalInQueue:   len(queue),
			TotalInLoading: len(inLoading),
			AvailableBays:  len(available),
			OccupiedBays:   len(occupied),
			UrgentRequests: urgent,
		},
	}, nil
}

type UpdateQueueInput struct {
	TruckRequestID string
	NewPriority    string
	Position       *int
}

type QueueUpdate struct {
	Request  *model.TruckRequest `json:"request"`
	Movement *model.YardMovement `json:"movement"`
}

// UpdateQueue optionally changes a request's priority and always logs a queue movement.
func (s *YardService) UpdateQueue(ctx context.Context, principal model.Principal, input UpdateQueueInput) (*QueueUpdate, error) {
	if err := Authorize(principal, OpQueueReprioritize); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.TruckRequestID) == "" {
		return nil, invalidInput("truckRequestId is required")
	}
	requestID, err := parseID(input.TruckRequestID, "truckRequestId")
	if err != nil {
		return nil, err
	}

	var priority *model.Priority
	if raw := strings.TrimSpace(input.NewPriority); raw != "" {
		p := model.Priority(strings.ToLower(raw))
		if !p.Valid() {
			return nil, invalidInput("newPriority must be one of low, normal, high, urgent")
		}
		priority = &p
	}
	if input.Position != nil && *input.Position < 1 {
		return nil, invalidInput("position must be at least 1")
	}

	var result *QueueUpdate
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		request, err := tx.Requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "Truck request")
		}

		notes := "Queue position updated"
		if priority != nil {
			request.Priority = *priority
			if err := tx.Requests.Update(ctx, request); err != nil {
				return err
			}
			notes = fmt.Sprintf("Priority updated to %s", *priority)
		}

		toLocation := "Queue Position Updated"
		if input.Position != nil {
			toLocation = fmt.Sprintf("Queue Position %d", *input.Position)
		}

		movement := &model.YardMovement{
			TruckRequestID: requestID,
			MovementType:   model.MovementTypeQueue,
			FromLocation:   yardQueueLocation,
			ToLocation:     toLocation,
			SwitcherID:     principal.UserID,
			Notes:          notes,
			ActualTime:     s.now(),
		}
		if a := request.AssignedTruck; a != nil {
			movement.TruckID = uuidPtr(a.TruckID)
			movement.DriverID = uuidPtr(a.DriverID)
		}
		if err := tx.Movements.Create(ctx, movement); err != nil {
			return err
		}

		result = &QueueUpdate{Request: request, Movement: movement}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// occupiedBayFor returns the bay currently holding truckID, if any.
func occupiedBayFor(bays []model.LoadingBay, truckID uuid.UUID) *model.LoadingBay {
	for i := range bays {
		if bays[i].CurrentTruck != nil && bays[i].CurrentTruck.TruckID == truckID {
			return &bays[i]
		}
	}
	return nil
}
