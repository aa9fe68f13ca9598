package repository

import (
	"context"
	"database/sql/driver"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yard-service/internal/model"
)

const migrationPath = "../db/migrations/000001_init.up.sql"

var (
	tableRe  = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)
	columnRe = regexp.MustCompile(`(?m)^    ([a-z_]+)\s+(.*)$`)
	insertRe = regexp.MustCompile(`^INSERT INTO "(\w+)" \(([^)]*)\) VALUES`)
	updateRe = regexp.MustCompile(`^UPDATE "(\w+)" SET`)
	assignRe = regexp.MustCompile(`"(\w+)"=\$(\d+)`)
)

// loadSchema maps table -> column -> NOT NULL, read from the initial migration.
func loadSchema(t *testing.T) map[string]map[string]bool {
	t.Helper()
	raw, err := os.ReadFile(migrationPath)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	schema := make(map[string]map[string]bool)
	for _, table := range tableRe.FindAllStringSubmatch(string(raw), -1) {
		columns := make(map[string]bool)
		for _, col := range columnRe.FindAllStringSubmatch(table[2], -1) {
			columns[col[1]] = strings.Contains(col[2], "NOT NULL") || strings.Contains(col[2], "PRIMARY KEY")
		}
		schema[table[1]] = columns
	}
	if len(schema) == 0 {
		t.Fatal("no tables parsed from migration")
	}
	return schema
}

type writtenRow struct {
	table  string
	sql    string
	values map[string]interface{}
}

type statementLog struct {
	rows    []writtenRow
	queries []string
}

func (l *statementLog) last(t *testing.T) writtenRow {
	t.Helper()
	if len(l.rows) == 0 {
		t.Fatal("no write captured")
	}
	return l.rows[len(l.rows)-1]
}

// dryRunDB builds statements without a server and records every write and query.
func dryRunDB(t *testing.T) (*gorm.DB, *statementLog) {
	t.Helper()
	dialector := postgres.New(postgres.Config{DSN: "host=localhost user=yard dbname=yard sslmode=disable"})
	database, err := gorm.Open(dialector, &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry run db: %v", err)
	}

	log := &statementLog{}
	captureWrite := func(tx *gorm.DB) {
		row, ok := parseWrite(tx.Statement.SQL.String(), tx.Statement.Vars)
		if !ok {
			t.Errorf("unrecognised write: %s", tx.Statement.SQL.String())
			return
		}
		log.rows = append(log.rows, row)
	}
	captureQuery := func(tx *gorm.DB) {
		log.queries = append(log.queries, tx.Statement.SQL.String())
	}
	if err := database.Callback().Create().After("gorm:create").Register("test:capture_create", captureWrite); err != nil {
		t.Fatal(err)
	}
	if err := database.Callback().Update().After("gorm:update").Register("test:capture_update", captureWrite); err != nil {
		t.Fatal(err)
	}
	if err := database.Callback().Query().After("gorm:query").Register("test:capture_query", captureQuery); err != nil {
		t.Fatal(err)
	}
	return database, log
}

func parseWrite(sql string, vars []interface{}) (writtenRow, bool) {
	if m := insertRe.FindStringSubmatch(sql); m != nil {
		row := writtenRow{table: m[1], sql: sql, values: make(map[string]interface{})}
		for i, col := range strings.Split(m[2], ",") {
			if i >= len(vars) {
				return row, false
			}
			row.values[strings.Trim(col, `"`)] = vars[i]
		}
		return row, true
	}
	if m := updateRe.FindStringSubmatch(sql); m != nil {
		row := writtenRow{table: m[1], sql: sql, values: make(map[string]interface{})}
		set, _, _ := strings.Cut(sql, " WHERE ")
		for _, a := range assignRe.FindAllStringSubmatch(set, -1) {
			n, err := strconv.Atoi(a[2])
			if err != nil || n < 1 || n > len(vars) {
				return row, false
			}
			row.values[a[1]] = vars[n-1]
		}
		return row, true
	}
	return writtenRow{}, false
}

func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		value, err := valuer.Value()
		return err == nil && value == nil
	}
	return false
}

// assertFitsSchema fails on columns missing from the migration and on NULLs bound to NOT NULL columns.
func assertFitsSchema(t *testing.T, schema map[string]map[string]bool, row writtenRow) {
	t.Helper()
	columns, ok := schema[row.table]
	if !ok {
		t.Fatalf("table %s not in migration", row.table)
	}
	for col, value := range row.values {
		notNull, ok := columns[col]
		if !ok {
			t.Errorf("%s.%s not in migration", row.table, col)
			continue
		}
		if notNull && isNull(value) {
			t.Errorf("%s.%s is NOT NULL but got NULL\n%s", row.table, col, row.sql)
		}
	}
}

// assertWrittenTogether fails unless cols are all NULL or all set.
func assertWrittenTogether(t *testing.T, row writtenRow, wantSet bool, cols ...string) {
	t.Helper()
	for _, col := range cols {
		value, ok := row.values[col]
		if !ok {
			t.Errorf("%s.%s not written", row.table, col)
			continue
		}
		if isNull(value) == wantSet {
			t.Errorf("%s.%s: set=%v, want %v", row.table, col, !isNull(value), wantSet)
		}
	}
}

func TestRepository_WritesFitSchema(t *testing.T) {
	schema := loadSchema(t)
	ctx := context.Background()

	t.Run("user", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewUserRepository(database, false)

		user := &model.User{Name: "Ana", Email: "ana@yard.test", Role: model.RoleLoader, Department: model.DepartmentLoading, IsActive: true}
		if err := repo.Create(ctx, user); err != nil {
			t.Fatalf("create: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))

		user.DeviceTokens = nil
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("update: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))

		user.AddDeviceToken("tok-1")
		user.RemoveDeviceToken("tok-1")
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("update: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))

		user.ClearDeviceTokens()
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("update: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))
	})

	t.Run("driver profile", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewDriverRepository(database, false)

		profile := &model.DriverProfile{
			UserID:        uuid.New(),
			LicenseNumber: "DL-1",
			LicenseExpiry: time.Now().AddDate(1, 0, 0),
			LicenseType:   model.LicenseTypeHMV,
			Phone:         "555",
			Status:        model.DriverStatusAvailable,
			IsActive:      true,
		}
		if err := repo.Create(ctx, profile); err != nil {
			t.Fatalf("create: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))

		profile.AssignTruck(uuid.New())
		if err := repo.Update(ctx, profile); err != nil {
			t.Fatalf("update: %v", err)
		}
		row := log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, true, "current_truck_id")
	})

	t.Run("truck", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewTruckRepository(database, false)

		truck := &model.Truck{TruckNumber: "T-1", PlateNumber: "P-1", Capacity: 10, Type: model.TruckTypeFlatbed, Status: model.TruckStatusAvailable, IsActive: true}
		if err := repo.Create(ctx, truck); err != nil {
			t.Fatalf("create: %v", err)
		}
		row := log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, "assigned_driver_id", "current_request_id")

		truck.Assign(uuid.New(), uuid.New())
		if err := repo.Update(ctx, truck); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, true, "assigned_driver_id", "current_request_id")
	})

	t.Run("truck request", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewTruckRequestRepository(database, false)
		assignment := []string{"assigned_truck_id", "assigned_driver_id", "assigned_at", "assigned_by"}

		request := &model.TruckRequest{
			RequesterID:      uuid.New(),
			LoadID:           "L-1",
			LoadDescription:  "pallets",
			Priority:         model.PriorityNormal,
			PickupLocation:   "Gate A",
			DeliveryLocation: "Depot",
			Status:           model.RequestStatusPending,
		}
		if err := repo.Create(ctx, request); err != nil {
			t.Fatalf("create: %v", err)
		}
		row := log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, assignment...)

		request.Assign(model.AssignedTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now(), AssignedBy: uuid.New()})
		if err := repo.Update(ctx, request); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, true, assignment...)

		// Setting the nested value alone still writes all four columns.
		request.AssignedTruck = &model.AssignedTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now(), AssignedBy: uuid.New()}
		if err := repo.Update(ctx, request); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertWrittenTogether(t, row, true, assignment...)
		if got := row.values["assigned_truck_id"]; !reflect.DeepEqual(got, &request.AssignedTruck.TruckID) {
			t.Errorf("assigned_truck_id = %v, want %v", got, request.AssignedTruck.TruckID)
		}

		request.ClearAssignment()
		if err := repo.Update(ctx, request); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, assignment...)
	})

	t.Run("loading bay", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewLoadingBayRepository(database, false)
		occupant := []string{"current_truck_id", "current_driver_id", "occupied_since"}

		bay := &model.LoadingBay{BayNumber: "B1", BayName: "North", Location: "Dock 1", Status: model.BayStatusAvailable, IsActive: true}
		if err := repo.Create(ctx, bay); err != nil {
			t.Fatalf("create: %v", err)
		}
		row := log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, occupant...)
		if got := row.values["capacity"]; got != 1 {
			t.Errorf("capacity = %v, want 1", got)
		}

		bay.Occupy(model.BayTruck{TruckID: uuid.New(), DriverID: uuid.New(), AssignedAt: time.Now()}, uuid.New())
		if err := repo.Update(ctx, bay); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, true, occupant...)
		if got := row.values["status"]; got != model.BayStatusOccupied {
			t.Errorf("status = %v, want occupied", got)
		}

		bay.Release()
		if err := repo.Update(ctx, bay); err != nil {
			t.Fatalf("update: %v", err)
		}
		row = log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, append(occupant, "estimated_departure")...)
	})

	t.Run("movement", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewMovementRepository(database)

		movement := &model.YardMovement{TruckRequestID: uuid.New(), MovementType: model.MovementTypeQueue, ToLocation: "Queue", SwitcherID: uuid.New()}
		if err := repo.Create(ctx, movement); err != nil {
			t.Fatalf("create: %v", err)
		}
		row := log.last(t)
		assertFitsSchema(t, schema, row)
		assertWrittenTogether(t, row, false, "truck_id", "driver_id", "loading_bay_id")
	})

	t.Run("notification", func(t *testing.T) {
		database, log := dryRunDB(t)
		repo := NewNotificationRepository(database)

		notification := &model.Notification{RecipientID: uuid.New(), Type: model.NotificationTypeGeneral, Title: "Hi", Message: "Hello"}
		if err := repo.Create(ctx, notification); err != nil {
			t.Fatalf("create: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))

		notification.MarkRead(time.Now())
		if err := repo.Update(ctx, notification); err != nil {
			t.Fatalf("update: %v", err)
		}
		assertFitsSchema(t, schema, log.last(t))
	})
}

func TestRepository_LockedReads(t *testing.T) {
	ctx := context.Background()
	database, log := dryRunDB(t)

	if _, err := NewTruckRepository(database, false).GetByID(ctx, uuid.New()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := NewTruckRepository(database, true).GetByID(ctx, uuid.New()); err != nil {
		t.Fatalf("get locked: %v", err)
	}
	if len(log.queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(log.queries))
	}
	if strings.Contains(log.queries[0], "FOR UPDATE") {
		t.Errorf("plain read locks rows: %s", log.queries[0])
	}
	if !strings.Contains(log.queries[1], "FOR UPDATE") {
		t.Errorf("transactional read does not lock: %s", log.queries[1])
	}
}

func TestRepository_PriorityOrdering(t *testing.T) {
	ctx := context.Background()
	database, log := dryRunDB(t)

	repo := NewTruckRequestRepository(database, false)
	if _, _, err := repo.List(ctx, RequestFilter{SortByPriority: true}); err != nil {
		t.Fatalf("list: %v", err)
	}
	var found bool
	for _, q := range log.queries {
		if strings.Contains(q, "ORDER BY "+priorityRankExpr) {
			found = true
		}
	}
	if !found {
		t.Errorf("no priority ordering in %q", log.queries)
	}
}
