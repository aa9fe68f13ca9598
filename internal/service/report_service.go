package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"yard-service/internal/model"
	"yard-service/internal/repository"
)

const (
	dashboardListLimit = 10
	recentRequestLimit = 5
	defaultExportDays  = 30
)

var ErrExportGenerate = errors.New("failed to generate export")

// ReportService builds the per-role dashboards and the spreadsheet export.
type ReportService struct {
	repo *repository.Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewReportService(repo *repository.Repository, log zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, log: log, now: time.Now}
}

type LoaderDashboard struct {
	TotalRequests       int64                         `json:"totalRequests"`
	StatusCounts        map[model.RequestStatus]int64 `json:"statusCounts"`
	RecentRequests      []model.TruckRequest          `json:"recentRequests"`
	UnreadNotifications int64                         `json:"unreadNotifications"`
}

func (s *ReportService) LoaderDashboard(ctx context.Context, principal model.Principal) (*LoaderDashboard, error) {
	if err := Authorize(principal, OpDashboardLoader); err != nil {
		return nil, err
	}

	own := repository.RequestFilter{RequesterID: &principal.UserID}
	counts, err := s.repo.Requests.CountByStatus(ctx, own)
	if err != nil {
		return nil, err
	}

	recentFilter := own
	recentFilter.Pagination = repository.Pagination{Page: 1, Limit: recentRequestLimit}
	recent, _, err := s.repo.Requests.List(ctx, recentFilter)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.Notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	return &LoaderDashboard{
		TotalRequests:       sum(counts),
		StatusCounts:        counts,
		RecentRequests:      recent,
		UnreadNotifications: unread,
	}, nil
}

type DayStats struct {
	Created   int64 `json:"created"`
	Completed int64 `json:"completed"`
}

type DispatcherDashboard struct {
	PendingRequests     []model.TruckRequest          `json:"pendingRequests"`
	ActiveRequests      []model.TruckRequest          `json:"activeRequests"`
	StatusBreakdown     map[model.RequestStatus]int64 `json:"statusBreakdown"`
	PriorityBreakdown   map[model.Priority]int64      `json:"priorityBreakdown"`
	UrgentPending       int64                         `json:"urgentPending"`
	AssignedByMe        int64                         `json:"assignedByMe"`
	Today               DayStats                      `json:"today"`
	AvailableDrivers    int64                         `json:"availableDrivers"`
	AvailableTrucks     int64                         `json:"availableTrucks"`
	UnreadNotifications int64                         `json:"unreadNotifications"`
}

func (s *ReportService) DispatcherDashboard(ctx context.Context, principal model.Principal) (*DispatcherDashboard, error) {
	if err := Authorize(principal, OpDashboardDispatcher); err != nil {
		return nil, err
	}

	firstPage := repository.Pagination{Page: 1, Limit: dashboardListLimit}
	pending, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{
		Statuses:       []model.RequestStatus{model.RequestStatusPending},
		SortByPriority: true,
		Pagination:     firstPage,
	})
	if err != nil {
		return nil, err
	}
	active, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{
		Statuses:   []model.RequestStatus{model.RequestStatusAssigned, model.RequestStatusInProgress},
		Pagination: firstPage,
	})
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.Requests.CountByStatus(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}
	byPriority, err := s.repo.Requests.CountByPriority(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}

	urgent := model.PriorityUrgent
	urgentPending, err := s.repo.Requests.Count(ctx, repository.RequestFilter{
		Statuses: []model.RequestStatus{model.RequestStatusPending},
		Priority: &urgent,
	})
	if err != nil {
		return nil, err
	}
	assignedByMe, err := s.repo.Requests.Count(ctx, repository.RequestFilter{AssignedBy: &principal.UserID})
	if err != nil {
		return nil, err
	}
	today, err := s.todayStats(ctx)
	if err != nil {
		return nil, err
	}

	drivers, err := s.repo.Drivers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	trucks, err := s.repo.Trucks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.Notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	return &DispatcherDashboard{
		PendingRequests:     pending,
		ActiveRequests:      active,
		StatusBreakdown:     byStatus,
		PriorityBreakdown:   byPriority,
		UrgentPending:       urgentPending,
		AssignedByMe:        assignedByMe,
		Today:               today,
		AvailableDrivers:    drivers[model.DriverStatusAvailable],
		AvailableTrucks:     trucks[model.TruckStatusAvailable],
		UnreadNotifications: unread,
	}, nil
}

type SwitcherDashboard struct {
	Queue               QueueStats                   `json:"queue"`
	MyMovementsToday    int64                        `json:"myMovementsToday"`
	MovementsToday      map[model.MovementType]int64 `json:"movementsToday"`
	OccupiedBays        []model.LoadingBay           `json:"occupiedBays"`
	RecentMovements     []model.YardMovement         `json:"recentMovements"`
	UnreadNotifications int64                        `json:"unreadNotifications"`
}

func (s *ReportService) SwitcherDashboard(ctx context.Context, principal model.Principal) (*SwitcherDashboard, error) {
	if err := Authorize(principal, OpDashboardSwitcher); err != nil {
		return nil, err
	}

	byStatus, err := s.repo.Requests.CountByStatus(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}
	urgent := model.PriorityUrgent
	urgentQueued, err := s.repo.Requests.Count(ctx, repository.RequestFilter{
		Statuses: []model.RequestStatus{model.RequestStatusAssigned},
		Priority: &urgent,
	})
	if err != nil {
		return nil, err
	}
	bays, err := s.repo.Bays.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	from := startOfDay(s.now())
	to := from.Add(24 * time.Hour)
	today := repository.MovementFilter{From: &from, To: &to}
	movementsToday, err := s.repo.Movements.CountByType(ctx, today)
	if err != nil {
		return nil, err
	}
	mine := today
	mine.SwitcherID = &principal.UserID
	myToday, err := s.repo.Movements.CountByType(ctx, mine)
	if err != nil {
		return nil, err
	}

	active := true
	occupiedStatus := model.BayStatusOccupied
	occupied, err := s.repo.Bays.List(ctx, repository.BayFilter{Status: &occupiedStatus, IsActive: &active})
	if err != nil {
		return nil, err
	}
	recent, _, err := s.repo.Movements.List(ctx, repository.MovementFilter{
		SwitcherID: &principal.UserID,
		Pagination: repository.Pagination{Page: 1, Limit: dashboardListLimit},
	})
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.Notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	return &SwitcherDashboard{
		Queue: QueueStats{
			TotalInQueue:   int(byStatus[model.RequestStatusAssigned]),
			TotalInLoading: int(byStatus[model.RequestStatusInProgress]),
			AvailableBays:  int(bays[model.BayStatusAvailable]),
			OccupiedBays:   int(bays[model.BayStatusOccupied]),
			UrgentRequests: urgentQueued,
		},
		MyMovementsToday:    sum(myToday),
		MovementsToday:      movementsToday,
		OccupiedBays:        occupied,
		RecentMovements:     recent,
		UnreadNotifications: unread,
	}, nil
}

type DriverDashboard struct {
	Profile             *model.DriverProfile `json:"profile"`
	CurrentRequest      *model.TruckRequest  `json:"currentRequest"`
	CurrentTruck        *model.Truck         `json:"currentTruck"`
	CurrentBay          *model.LoadingBay    `json:"currentBay"`
	AssignedRequests    []model.TruckRequest `json:"assignedRequests"`
	CompletedTrips      int64                `json:"completedTrips"`
	UnreadNotifications int64                `json:"unreadNotifications"`
}

func (s *ReportService) DriverDashboard(ctx context.Context, principal model.Principal) (*DriverDashboard, error) {
	if err := Authorize(principal, OpDashboardDriver); err != nil {
		return nil, err
	}

	dashboard := &DriverDashboard{}

	profile, err := s.repo.Drivers.GetByUserID(ctx, principal.UserID)
	switch {
	case err == nil:
		dashboard.Profile = profile
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	assigned, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{
		DriverID:   &principal.UserID,
		Statuses:   []model.RequestStatus{model.RequestStatusAssigned, model.RequestStatusInProgress},
		Pagination: repository.Pagination{Page: 1, Limit: dashboardListLimit},
	})
	if err != nil {
		return nil, err
	}
	dashboard.AssignedRequests = assigned

	if len(assigned) > 0 {
		current := assigned[0]
		for i := range assigned {
			if assigned[i].Status == model.RequestStatusInProgress {
				current = assigned[i]
				break
			}
		}
		dashboard.CurrentRequest = &current

		truck, err := s.repo.Trucks.GetByID(ctx, current.AssignedTruck.TruckID)
		switch {
		case err == nil:
			dashboard.CurrentTruck = truck
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}

		occupiedStatus := model.BayStatusOccupied
		bays, err := s.repo.Bays.List(ctx, repository.BayFilter{Status: &occupiedStatus})
		if err != nil {
			return nil, err
		}
		dashboard.CurrentBay = occupiedBayFor(bays, current.AssignedTruck.TruckID)
	}

	completed, err := s.repo.Requests.Count(ctx, repository.RequestFilter{
		DriverID: &principal.UserID,
		Statuses: []model.RequestStatus{model.RequestStatusCompleted},
	})
	if err != nil {
		return nil, err
	}
	dashboard.CompletedTrips = completed

	unread, err := s.repo.Notifications.CountUnread(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	dashboard.UnreadNotifications = unread

	return dashboard, nil
}

type UserOverview struct {
	Total        int64                      `json:"total"`
	Active       int64                      `json:"active"`
	ByRole       map[model.Role]int64       `json:"byRole"`
	ByDepartment map[model.Department]int64 `json:"byDepartment"`
}

type RequestOverview struct {
	Total          int64                         `json:"total"`
	ByStatus       map[model.RequestStatus]int64 `json:"byStatus"`
	ByPriority     map[model.Priority]int64      `json:"byPriority"`
	CompletionRate float64                       `json:"completionRate"`
}

type FleetOverview struct {
	Trucks  map[model.TruckStatus]int64  `json:"trucks"`
	Drivers map[model.DriverStatus]int64 `json:"drivers"`
	Bays    map[model.BayStatus]int64    `json:"bays"`
}

type Alerts struct {
	OverdueRequests int64 `json:"overdueRequests"`
	InactiveUsers   int64 `json:"inactiveUsers"`
}

type AdminDashboard struct {
	Users    UserOverview    `json:"users"`
	Requests RequestOverview `json:"requests"`
	Fleet    FleetOverview   `json:"fleet"`
	Today    DayStats        `json:"today"`
	Alerts   Alerts          `json:"alerts"`
}

func (s *ReportService) AdminDashboard(ctx context.Context, principal model.Principal) (*AdminDashboard, error) {
	if err := Authorize(principal, OpDashboardAdmin); err != nil {
		return nil, err
	}

	byRole, err := s.repo.Users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.repo.Users.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	inactive := false
	inactiveUsers, err := s.repo.Users.Count(ctx, repository.UserFilter{IsActive: &inactive})
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.Requests.CountByStatus(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}
	byPriority, err := s.repo.Requests.CountByPriority(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	overdue, err := s.repo.Requests.Count(ctx, repository.RequestFilter{
		Statuses:       []model.RequestStatus{model.RequestStatusPending, model.RequestStatusAssigned, model.RequestStatusInProgress},
		RequiredBefore: &now,
	})
	if err != nil {
		return nil, err
	}
	today, err := s.todayStats(ctx)
	if err != nil {
		return nil, err
	}

	trucks, err := s.repo.Trucks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	drivers, err := s.repo.Drivers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bays, err := s.repo.Bays.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	totalUsers := sum(byRole)
	totalRequests := sum(byStatus)
	var completionRate float64
	if totalRequests > 0 {
		completionRate = float64(byStatus[model.RequestStatusCompleted]) / float64(totalRequests) * 100
	}

	return &AdminDashboard{
		Users: UserOverview{
			Total:        totalUsers,
			Active:       totalUsers - inactiveUsers,
			ByRole:       byRole,
			ByDepartment: byDepartment,
		},
		Requests: RequestOverview{
			Total:          totalRequests,
			ByStatus:       byStatus,
			ByPriority:     byPriority,
			CompletionRate: completionRate,
		},
		Fleet: FleetOverview{Trucks: trucks, Drivers: drivers, Bays: bays},
		Today: today,
		Alerts: Alerts{
			OverdueRequests: overdue,
			InactiveUsers:   inactiveUsers,
		},
	}, nil
}

func (s *ReportService) todayStats(ctx context.Context) (DayStats, error) {
	from := startOfDay(s.now())
	created, err := s.repo.Requests.Count(ctx, repository.RequestFilter{CreatedFrom: &from})
	if err != nil {
		return DayStats{}, err
	}
	completed, err := s.repo.Requests.Count(ctx, repository.RequestFilter{
		Statuses:    []model.RequestStatus{model.RequestStatusCompleted},
		UpdatedFrom: &from,
	})
	if err != nil {
		return DayStats{}, err
	}
	return DayStats{Created: created, Completed: completed}, nil
}

type ExportInput struct {
	From string
	To   string
}

var (
	requestSheetHeader = []interface{}{
		"Request ID", "Load ID", "Description", "Priority", "Status", "Pickup", "Delivery",
		"Requested", "Required", "Truck ID", "Driver ID", "Assigned At",
	}
	movementSheetHeader = []interface{}{
		"Time", "Type", "Request ID", "Truck ID", "Driver ID", "From", "To", "Bay ID", "Switcher ID", "Notes",
	}
)

// Export writes truck requests and yard movements created in [From, To] into an
// .xlsx workbook. Dates without a time cover the whole day; the default range is the
// last 30 days.
func (s *ReportService) Export(ctx context.Context, principal model.Principal, input ExportInput) (*bytes.Buffer, string, error) {
	if err := Authorize(principal, OpReportExport); err != nil {
		return nil, "", err
	}

	to := startOfDay(s.now()).Add(24 * time.Hour)
	if input.To != "" {
		parsed, err := ParseTime(input.To)
		if err != nil {
			return nil, "", invalidInput("to must be a date")
		}
		to = startOfDay(parsed).Add(24 * time.Hour)
	}
	from := to.AddDate(0, 0, -defaultExportDays)
	if input.From != "" {
		parsed, err := ParseTime(input.From)
		if err != nil {
			return nil, "", invalidInput("from must be a date")
		}
		from = startOfDay(parsed)
	}
	if !from.Before(to) {
		return nil, "", invalidInput("from must be before to")
	}

	requests, _, err := s.repo.Requests.List(ctx, repository.RequestFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, "", err
	}
	movements, _, err := s.repo.Movements.List(ctx, repository.MovementFilter{From: &from, To: &to})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const requestSheet, movementSheet = "Requests", "Movements"
	if err := f.SetSheetName("Sheet1", requestSheet); err != nil {
		return nil, "", s.exportErr(err)
	}
	if _, err := f.NewSheet(movementSheet); err != nil {
		return nil, "", s.exportErr(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", s.exportErr(err)
	}

	rows := make([][]interface{}, 0, len(requests))
	for _, r := range requests {
		row := []interface{}{
			r.ID.String(), r.LoadID, r.LoadDescription, string(r.Priority), string(r.Status),
			r.PickupLocation, r.DeliveryLocation, formatTime(&r.RequestedTime), formatTime(r.RequiredTime), "", "", "",
		}
		if a := r.AssignedTruck; a != nil {
			row[9], row[10], row[11] = a.TruckID.String(), a.DriverID.String(), formatTime(&a.AssignedAt)
		}
		rows = append(rows, row)
	}
	if err := writeSheet(f, requestSheet, requestSheetHeader, rows, headerStyle); err != nil {
		return nil, "", s.exportErr(err)
	}

	rows = rows[:0]
	for _, m := range movements {
		rows = append(rows, []interface{}{
			formatTime(&m.ActualTime), string(m.MovementType), m.TruckRequestID.String(),
			idString(m.TruckID), idString(m.DriverID), m.FromLocation, m.ToLocation,
			idString(m.LoadingBayID), m.SwitcherID.String(), m.Notes,
		})
	}
	if err := writeSheet(f, movementSheet, movementSheetHeader, rows, headerStyle); err != nil {
		return nil, "", s.exportErr(err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.exportErr(err)
	}

	filename := fmt.Sprintf("yard-report_%s_%s.xlsx", from.Format("20060102"), to.Add(-time.Second).Format("20060102"))
	return buf, filename, nil
}

func (s *ReportService) exportErr(err error) error {
	s.log.Error().Err(err).Msg("failed to build export workbook")
	return ErrExportGenerate
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func idString[T fmt.Stringer](id *T) string {
	if id == nil {
		return ""
	}
	return (*id).String()
}
