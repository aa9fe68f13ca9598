package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTruckRequestAssignmentRoundTrip(t *testing.T) {
	req := &TruckRequest{Status: RequestStatusPending}
	assignment := AssignedTruck{
		TruckID:    uuid.New(),
		DriverID:   uuid.New(),
		AssignedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		AssignedBy: uuid.New(),
	}

	req.Assign(assignment)

	if req.Status != RequestStatusAssigned {
		t.Fatalf("expected status assigned, got %s", req.Status)
	}
	if req.AssignedTruckID == nil || *req.AssignedTruckID != assignment.TruckID {
		t.Fatalf("truck column not flattened")
	}

	loaded := &TruckRequest{
		AssignedTruckID:  req.AssignedTruckID,
		AssignedDriverID: req.AssignedDriverID,
		AssignedAt:       req.AssignedAt,
		AssignedBy:       req.AssignedBy,
	}
	if err := loaded.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if loaded.AssignedTruck == nil || *loaded.AssignedTruck != assignment {
		t.Fatalf("expected %+v, got %+v", assignment, loaded.AssignedTruck)
	}

	req.ClearAssignment()
	if req.HasAssignment() || req.AssignedTruckID != nil || req.AssignedAt != nil {
		t.Fatalf("assignment not cleared: %+v", req)
	}
}

func TestAfterFindWithoutAssignment(t *testing.T) {
	req := &TruckRequest{AssignedTruck: &AssignedTruck{TruckID: uuid.New()}}
	if err := req.AfterFind(nil); err != nil {
		t.Fatalf("AfterFind: %v", err)
	}
	if req.AssignedTruck != nil {
		t.Fatalf("expected nil assignment for empty columns")
	}
}

func TestRequestStatusRequiresAssignment(t *testing.T) {
	cases := map[RequestStatus]bool{
		RequestStatusPending:    false,
		RequestStatusAssigned:   true,
		RequestStatusInProgress: true,
		RequestStatusCompleted:  true,
		RequestStatusCancelled:  false,
	}
	for status, want := range cases {
		if got := status.RequiresAssignment(); got != want {
			t.Errorf("%s: expected %v, got %v", status, want, got)
		}
	}
	if RequestStatus("delivered").Valid() {
		t.Errorf("delivered must not be a valid status")
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityUrgent.Rank() > PriorityHigh.Rank() && PriorityHigh.Rank() > PriorityNormal.Rank() && PriorityNormal.Rank() > PriorityLow.Rank()) {
		t.Fatalf("priority ranks out of order")
	}
	if Priority("critical").Valid() {
		t.Fatalf("unknown priority must be invalid")
	}
}

func TestLoadingBayOccupyRelease(t *testing.T) {
	bay := &LoadingBay{Status: BayStatusAvailable}
	by := uuid.New()
	truck := BayTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now()}

	bay.Occupy(truck, by)
	if !bay.IsOccupied() || bay.CurrentTruckID == nil || *bay.AssignedBy != by {
		t.Fatalf("bay not occupied: %+v", bay)
	}

	bay.Release()
	if bay.Status != BayStatusAvailable || bay.CurrentTruck != nil || bay.CurrentTruckID != nil {
		t.Fatalf("bay not released: %+v", bay)
	}
}

func TestUserDeviceTokens(t *testing.T) {
	u := &User{}
	if !u.AddDeviceToken("a") || u.AddDeviceToken("a") {
		t.Fatalf("expected dedup on add")
	}
	u.AddDeviceToken("b")
	u.RemoveDeviceToken("a")
	if len(u.DeviceTokens) != 1 || u.DeviceTokens[0] != "b" {
		t.Fatalf("unexpected tokens: %v", u.DeviceTokens)
	}
}
