package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"yard-service/internal/config"
	"yard-service/internal/db"
	"yard-service/internal/model"
)

// openTestDB connects to YARD_TEST_DB_DSN, applies migrations and empties every table.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("YARD_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("YARD_TEST_DB_DSN not set")
	}

	database, err := db.New(&config.Config{DB: config.DBConfig{DSN: dsn}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(database, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	err = database.Exec("TRUNCATE users, driver_profiles, trucks, truck_requests, loading_bays, yard_movements, notifications").Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func TestPostgres_Users(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()

	user := &model.User{Name: "Ana", Email: "ana@yard.test", Role: model.RoleLoader, Department: model.DepartmentLoading, IsActive: true}
	if err := repo.Users.Create(ctx, user); err != nil {
		t.Fatalf("create with nil tokens: %v", err)
	}

	user.AddDeviceToken("tok-1")
	if err := repo.Users.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}
	user.ClearDeviceTokens()
	if err := repo.Users.Update(ctx, user); err != nil {
		t.Fatalf("update after clear: %v", err)
	}

	got, err := repo.Users.GetByEmail(ctx, "ana@yard.test")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DeviceTokens == nil || len(got.DeviceTokens) != 0 {
		t.Errorf("DeviceTokens = %#v, want empty", got.DeviceTokens)
	}

	dup := &model.User{Name: "Other", Email: "ana@yard.test", Role: model.RoleLoader, Department: model.DepartmentLoading, IsActive: true}
	if err := repo.Users.Create(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate email err = %v, want ErrDuplicatedKey", err)
	}
}

func TestPostgres_Requests(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	requester := uuid.New()

	newRequest := func(loadID string, priority model.Priority) *model.TruckRequest {
		t.Helper()
		request := &model.TruckRequest{
			RequesterID:      requester,
			LoadID:           loadID,
			LoadDescription:  "pallets",
			Priority:         priority,
			PickupLocation:   "Gate A",
			DeliveryLocation: "Depot",
			Status:           model.RequestStatusPending,
		}
		if err := repo.Requests.Create(ctx, request); err != nil {
			t.Fatalf("create %s: %v", loadID, err)
		}
		return request
	}
	low := newRequest("L-low", model.PriorityLow)
	urgent := newRequest("L-urgent", model.PriorityUrgent)
	normal := newRequest("L-normal", model.PriorityNormal)

	list, total, err := repo.Requests.List(ctx, RequestFilter{SortByPriority: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("got %d rows (total %d), want 3", len(list), total)
	}
	for i, want := range []uuid.UUID{urgent.ID, normal.ID, low.ID} {
		if list[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, list[i].LoadID, want)
		}
	}

	assignment := model.AssignedTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now().UTC().Truncate(time.Microsecond), AssignedBy: uuid.New()}
	urgent.Assign(assignment)
	if err := repo.Requests.Update(ctx, urgent); err != nil {
		t.Fatalf("assign: %v", err)
	}
	got, err := repo.Requests.GetByID(ctx, urgent.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AssignedTruck == nil {
		t.Fatal("assignment not loaded")
	}
	if got.AssignedTruck.TruckID != assignment.TruckID || got.AssignedTruck.DriverID != assignment.DriverID ||
		got.AssignedTruck.AssignedBy != assignment.AssignedBy || !got.AssignedTruck.AssignedAt.Equal(assignment.AssignedAt) {
		t.Errorf("assignment = %+v, want %+v", *got.AssignedTruck, assignment)
	}

	counts, err := repo.Requests.CountByStatus(ctx, RequestFilter{})
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}
	if counts[model.RequestStatusPending] != 2 || counts[model.RequestStatusAssigned] != 1 {
		t.Errorf("counts = %v", counts)
	}

	got.ClearAssignment()
	if err := repo.Requests.Update(ctx, got); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = repo.Requests.GetByID(ctx, urgent.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AssignedTruck != nil {
		t.Errorf("assignment = %+v after clear", *got.AssignedTruck)
	}
}

func TestPostgres_BayOccupant(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()

	bay := &model.LoadingBay{BayNumber: "B1", BayName: "North", Location: "Dock 1", Status: model.BayStatusAvailable, IsActive: true}
	if err := repo.Bays.Create(ctx, bay); err != nil {
		t.Fatalf("create: %v", err)
	}

	truck := model.BayTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now().UTC().Truncate(time.Microsecond)}
	bay.Occupy(truck, uuid.New())
	if err := repo.Bays.Update(ctx, bay); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	got, err := repo.Bays.GetByID(ctx, bay.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentTruck == nil || got.CurrentTruck.TruckID != truck.TruckID {
		t.Fatalf("occupant = %+v, want truck %s", got.CurrentTruck, truck.TruckID)
	}

	// Occupied without a truck violates the occupant constraint.
	got.CurrentTruck = nil
	if err := repo.Bays.Update(ctx, got); err == nil {
		t.Error("occupied bay without truck was saved")
	}

	got.Release()
	if err := repo.Bays.Update(ctx, got); err != nil {
		t.Fatalf("release: %v", err)
	}
	counts, err := repo.Bays.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[model.BayStatusAvailable] != 1 || counts[model.BayStatusOccupied] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestPostgres_TransactionRollback(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()

	truck := &model.Truck{TruckNumber: "T-1", PlateNumber: "P-1", Capacity: 10, Type: model.TruckTypeFlatbed, Status: model.TruckStatusAvailable, IsActive: true}
	if err := repo.Trucks.Create(ctx, truck); err != nil {
		t.Fatalf("create: %v", err)
	}

	errAbort := errors.New("abort")
	err := repo.Transaction(ctx, func(tx *Repository) error {
		locked, err := tx.Trucks.GetByID(ctx, truck.ID)
		if err != nil {
			return err
		}
		locked.Assign(uuid.New(), uuid.New())
		if err := tx.Trucks.Update(ctx, locked); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("err = %v, want abort", err)
	}

	got, err := repo.Trucks.GetByID(ctx, truck.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.TruckStatusAvailable || got.CurrentRequestID != nil {
		t.Errorf("truck = %s/%v after rollback, want available and unheld", got.Status, got.CurrentRequestID)
	}
}

func TestPostgres_MovementsAndNotifications(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()

	movement := &model.YardMovement{TruckRequestID: uuid.New(), MovementType: model.MovementTypeQueue, ToLocation: "Queue", SwitcherID: uuid.New()}
	if err := repo.Movements.Create(ctx, movement); err != nil {
		t.Fatalf("movement without truck: %v", err)
	}

	recipient := uuid.New()
	for _, title := range []string{"one", "two"} {
		n := &model.Notification{RecipientID: recipient, Type: model.NotificationTypeGeneral, Title: title, Message: title}
		if err := repo.Notifications.Create(ctx, n); err != nil {
			t.Fatalf("notification: %v", err)
		}
	}
	marked, err := repo.Notifications.MarkAllRead(ctx, recipient, time.Now())
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 2 {
		t.Errorf("marked = %d, want 2", marked)
	}
}
