package service

import (
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"yard-service/internal/model"
)

func TestReportService_LoaderDashboard(t *testing.T) {
	f := newFixture(t)
	loader := f.user(model.RoleLoader)
	other := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	f.request(loader, model.PriorityNormal)
	f.assigned(loader, dispatcher)
	f.request(other, model.PriorityHigh)

	dashboard, err := f.reports().LoaderDashboard(f.ctx, loader)
	if err != nil {
		t.Fatalf("LoaderDashboard: %v", err)
	}
	if dashboard.TotalRequests != 2 {
		t.Errorf("expected 2 own requests, got %d", dashboard.TotalRequests)
	}
	if dashboard.StatusCounts[model.RequestStatusAssigned] != 1 || dashboard.StatusCounts[model.RequestStatusPending] != 1 {
		t.Errorf("unexpected status counts: %+v", dashboard.StatusCounts)
	}
	if dashboard.UnreadNotifications != 1 {
		t.Errorf("expected the assignment notification unread, got %d", dashboard.UnreadNotifications)
	}

	if _, err := f.reports().LoaderDashboard(f.ctx, dispatcher); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestReportService_DispatcherDashboard(t *testing.T) {
	f := newFixture(t)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	f.request(loader, model.PriorityUrgent)
	f.request(loader, model.PriorityLow)
	f.assigned(loader, dispatcher)
	f.driver()

	dashboard, err := f.reports().DispatcherDashboard(f.ctx, dispatcher)
	if err != nil {
		t.Fatalf("DispatcherDashboard: %v", err)
	}
	if len(dashboard.PendingRequests) != 2 || dashboard.PendingRequests[0].Priority != model.PriorityUrgent {
		t.Errorf("pending requests should lead with urgent: %+v", dashboard.PendingRequests)
	}
	if len(dashboard.ActiveRequests) != 1 || dashboard.AssignedByMe != 1 || dashboard.UrgentPending != 1 {
		t.Errorf("unexpected counters: active=%d mine=%d urgent=%d",
			len(dashboard.ActiveRequests), dashboard.AssignedByMe, dashboard.UrgentPending)
	}
	if dashboard.AvailableDrivers != 1 || dashboard.Today.Created != 3 {
		t.Errorf("unexpected availability or today stats: %d %+v", dashboard.AvailableDrivers, dashboard.Today)
	}
}

func TestReportService_SwitcherDashboard(t *testing.T) {
	f := newFixture(t)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	switcher := f.user(model.RoleSwitcher)
	request, truck, driver := f.assigned(loader, dispatcher)
	bay := f.bay()
	f.bay()

	if _, err := f.yard().AssignBay(f.ctx, switcher, bay.ID.String(), AssignBayInput{
		TruckRequestID: request.ID.String(), TruckID: truck.ID.String(), DriverID: driver.UserID.String(),
	}); err != nil {
		t.Fatalf("AssignBay: %v", err)
	}

	dashboard, err := f.reports().SwitcherDashboard(f.ctx, switcher)
	if err != nil {
		t.Fatalf("SwitcherDashboard: %v", err)
	}
	if dashboard.MyMovementsToday != 1 || len(dashboard.RecentMovements) != 1 {
		t.Errorf("expected one movement today, got %d", dashboard.MyMovementsToday)
	}
	if len(dashboard.OccupiedBays) != 1 || dashboard.Queue.OccupiedBays != 1 || dashboard.Queue.AvailableBays != 1 {
		t.Errorf("unexpected bay figures: %+v", dashboard.Queue)
	}
	if dashboard.Queue.TotalInQueue != 1 {
		t.Errorf("expected 1 request in queue, got %d", dashboard.Queue.TotalInQueue)
	}
}

func TestReportService_DriverDashboard(t *testing.T) {
	f := newFixture(t)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	switcher := f.user(model.RoleSwitcher)
	request, truck, driver := f.assigned(loader, dispatcher)
	bay := f.bay()
	if _, err := f.yard().AssignBay(f.ctx, switcher, bay.ID.String(), AssignBayInput{
		TruckRequestID: request.ID.String(), TruckID: truck.ID.String(), DriverID: driver.UserID.String(),
	}); err != nil {
		t.Fatalf("AssignBay: %v", err)
	}

	dashboard, err := f.reports().DriverDashboard(f.ctx, driver)
	if err != nil {
		t.Fatalf("DriverDashboard: %v", err)
	}
	if dashboard.Profile == nil || dashboard.CurrentRequest == nil || dashboard.CurrentRequest.ID != request.ID {
		t.Fatalf("current request missing: %+v", dashboard)
	}
	if dashboard.CurrentTruck == nil || dashboard.CurrentTruck.ID != truck.ID {
		t.Error("current truck missing")
	}
	if dashboard.CurrentBay == nil || dashboard.CurrentBay.ID != bay.ID {
		t.Error("current bay missing")
	}
	if dashboard.UnreadNotifications != 2 {
		t.Errorf("expected assignment and bay notifications, got %d", dashboard.UnreadNotifications)
	}

	idle := f.driver()
	dashboard, err = f.reports().DriverDashboard(f.ctx, idle)
	if err != nil {
		t.Fatalf("DriverDashboard: %v", err)
	}
	if dashboard.CurrentRequest != nil || dashboard.CurrentBay != nil {
		t.Error("idle driver should have no current work")
	}
}

func TestReportService_AdminDashboard(t *testing.T) {
	f := newFixture(t)
	admin := f.user(model.RoleAdmin)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	request, _, _ := f.assigned(loader, dispatcher)
	if _, err := f.requests().UpdateStatus(f.ctx, dispatcher, request.ID.String(), UpdateStatusInput{Status: "completed"}); err != nil {
		t.Fatal(err)
	}

	overdue := f.request(loader, model.PriorityHigh)
	past := testNow.Add(-2 * time.Hour)
	overdue.RequiredTime = &past
	if err := f.repo.Requests.Update(f.ctx, overdue); err != nil {
		t.Fatal(err)
	}

	dashboard, err := f.reports().AdminDashboard(f.ctx, admin)
	if err != nil {
		t.Fatalf("AdminDashboard: %v", err)
	}
	if dashboard.Requests.Total != 2 || dashboard.Requests.CompletionRate != 50 {
		t.Errorf("unexpected request overview: %+v", dashboard.Requests)
	}
	if dashboard.Alerts.OverdueRequests != 1 {
		t.Errorf("expected 1 overdue request, got %d", dashboard.Alerts.OverdueRequests)
	}
	if dashboard.Users.Total != 4 || dashboard.Users.ByRole[model.RoleDriver] != 1 {
		t.Errorf("unexpected user overview: %+v", dashboard.Users)
	}
	if dashboard.Today.Completed != 1 {
		t.Errorf("expected 1 completed today, got %d", dashboard.Today.Completed)
	}
}

func TestReportService_Export(t *testing.T) {
	f := newFixture(t)
	supervisor := f.user(model.RoleSupervisor)
	loader := f.user(model.RoleLoader)
	dispatcher := f.user(model.RoleDispatcher)
	switcher := f.user(model.RoleSwitcher)
	request, _, _ := f.assigned(loader, dispatcher)
	f.request(loader, model.PriorityLow)
	if _, err := f.yard().UpdateQueue(f.ctx, switcher, UpdateQueueInput{TruckRequestID: request.ID.String()}); err != nil {
		t.Fatal(err)
	}

	buf, filename, err := f.reports().Export(f.ctx, supervisor, ExportInput{From: "2026-01-01", To: "2026-01-05"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filename != "yard-report_20260101_20260105.xlsx" {
		t.Errorf("unexpected filename %q", filename)
	}

	book, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()

	requests, err := book.GetRows("Requests")
	if err != nil {
		t.Fatal(err)
	}
	if len(requests) != 3 || requests[0][0] != "Request ID" {
		t.Errorf("expected header and 2 request rows, got %d rows", len(requests))
	}
	movements, err := book.GetRows("Movements")
	if err != nil {
		t.Fatal(err)
	}
	if len(movements) != 2 || movements[1][1] != string(model.MovementTypeQueue) {
		t.Errorf("expected header and 1 movement row, got %v", movements)
	}
}

func TestReportService_Export_Validation(t *testing.T) {
	f := newFixture(t)
	admin := f.user(model.RoleAdmin)
	dispatcher := f.user(model.RoleDispatcher)

	if _, _, err := f.reports().Export(f.ctx, dispatcher, ExportInput{}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
	if _, _, err := f.reports().Export(f.ctx, admin, ExportInput{From: "2026-02-01", To: "2026-01-01"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reversed range: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := f.reports().Export(f.ctx, admin, ExportInput{From: "last week"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad date: expected ErrInvalidInput, got %v", err)
	}
}
