package RouteLifecycle

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"Motorpool/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Models.Migrate(db))
	return db
}

func fullChecklist() Models.InspectionChecklist {
	return Models.InspectionChecklist{
		Battery: true, Lights: true, Oil: true, Water: true, Brakes: true,
		Air: true, Gas: true, Engine: true, Tires: true, Self: true,
	}
}

func startRequest(driverID uint) StartRouteRequest {
	return StartRouteRequest{
		DriverID:      driverID,
		PlateNumber:   "ABC-1234",
		Model:         "Hilux",
		ChassisNumber: "CH-0001",
		StartOdometer: 12000,
		Inspection:    fullChecklist(),
	}
}

func TestStartRouteLifecycle(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	routeID, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)
	assert.NotZero(t, routeID)

	// The vehicle was created from the plate number
	var vehicle Models.Vehicle
	require.NoError(t, db.Where("plate_number = ?", "ABC-1234").First(&vehicle).Error)
	assert.Equal(t, "Hilux", vehicle.VehicleModel)

	// The route is open and retrievable
	open, err := manager.GetOpenRouteFor(1)
	require.NoError(t, err)
	assert.Equal(t, routeID, open.ID)
	assert.True(t, open.IsOpen())

	// The start reading landed in the ledger
	readings, err := manager.Ledger.ReadingsFor(vehicle.ID)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 12000.0, readings[0].OdometerReading)

	// Closing the route appends the end reading
	require.NoError(t, manager.EndRoute(1, routeID, 12150, "brakes feel soft"))

	var closed Models.Route
	require.NoError(t, db.First(&closed, routeID).Error)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, 150.0, closed.Distance())
	assert.Equal(t, "brakes feel soft", closed.Remarks)

	readings, err = manager.Ledger.ReadingsFor(vehicle.ID)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 12150.0, readings[1].OdometerReading)

	// No open route remains for the driver
	_, err = manager.GetOpenRouteFor(1)
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestStartRouteRejectsSecondOpenRoute(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	_, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)

	_, err = manager.StartRoute(startRequest(1))
	assert.ErrorIs(t, err, ErrActiveRouteExists)

	// A different driver is unaffected
	req := startRequest(2)
	req.PlateNumber = "XYZ-9876"
	req.ChassisNumber = "CH-0002"
	_, err = manager.StartRoute(req)
	assert.NoError(t, err)
}

func TestStartRouteConcurrentSameDriver(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = manager.StartRoute(startRequest(7))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrActiveRouteExists)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent start may win")

	var open int64
	require.NoError(t, db.Model(&Models.Route{}).
		Where("driver_id = ? AND end_date_time IS NULL", 7).
		Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestStartRouteAfterClosingPreviousRoute(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	routeID, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)
	require.NoError(t, manager.EndRoute(1, routeID, 12100, ""))

	req := startRequest(1)
	req.StartOdometer = 12100
	_, err = manager.StartRoute(req)
	assert.NoError(t, err)
}

func TestStartRouteValidation(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	// Missing plate and non-positive odometer
	req := startRequest(1)
	req.PlateNumber = ""
	req.StartOdometer = 0
	_, err := manager.StartRoute(req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "plate_number")
	assert.Contains(t, verr.Fields, "start_odometer")

	// Incomplete checklist names every unchecked item
	req = startRequest(1)
	req.Inspection.Brakes = false
	req.Inspection.Tires = false
	_, err = manager.StartRoute(req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"inspection.brakes", "inspection.tires"}, verr.Fields)

	// Nothing was persisted
	var count int64
	require.NoError(t, db.Model(&Models.Route{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEndRouteOdometerRegression(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	routeID, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)

	err = manager.EndRoute(1, routeID, 11999, "")
	assert.ErrorIs(t, err, ErrOdometerRegression)

	// The route stays open and the ledger is untouched
	open, err := manager.GetOpenRouteFor(1)
	require.NoError(t, err)
	assert.True(t, open.IsOpen())

	var vehicle Models.Vehicle
	require.NoError(t, db.Where("plate_number = ?", "ABC-1234").First(&vehicle).Error)
	readings, err := manager.Ledger.ReadingsFor(vehicle.ID)
	require.NoError(t, err)
	assert.Len(t, readings, 1)

	// Equal end and start odometer is a zero-distance route, allowed
	assert.NoError(t, manager.EndRoute(1, routeID, 12000, ""))
}

func TestEndRouteIsTerminal(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	routeID, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)
	require.NoError(t, manager.EndRoute(1, routeID, 12050, ""))

	// A closed route cannot be closed again
	err = manager.EndRoute(1, routeID, 12100, "")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	err = manager.EndRoute(1, 9999, 12100, "")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestEndRouteRequiresOwningDriver(t *testing.T) {
	db := newTestDB(t)
	manager := NewManager(db)

	routeID, err := manager.StartRoute(startRequest(1))
	require.NoError(t, err)

	// Another driver cannot close it, and the route stays open
	err = manager.EndRoute(2, routeID, 12100, "")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	open, err := manager.GetOpenRouteFor(1)
	require.NoError(t, err)
	assert.True(t, open.IsOpen())

	// The owner still can
	assert.NoError(t, manager.EndRoute(1, routeID, 12100, ""))
}

func TestLedgerOrdering(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Append(nil, 1, 100, base.Add(2*time.Hour)))
	require.NoError(t, ledger.Append(nil, 1, 50, base))
	require.NoError(t, ledger.Append(nil, 1, 75, base.Add(time.Hour)))
	// Equal timestamps keep insertion order
	require.NoError(t, ledger.Append(nil, 1, 101, base.Add(3*time.Hour)))
	require.NoError(t, ledger.Append(nil, 1, 102, base.Add(3*time.Hour)))
	// Another vehicle's readings stay separate
	require.NoError(t, ledger.Append(nil, 2, 999, base))

	readings, err := ledger.ReadingsFor(1)
	require.NoError(t, err)
	require.Len(t, readings, 5)
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.OdometerReading
	}
	assert.Equal(t, []float64{50, 75, 100, 101, 102}, values)
}

func TestTransientErrorDetection(t *testing.T) {
	assert.True(t, isTransient(errors.New("database is locked")))
	assert.True(t, isTransient(errors.New("Deadlock found when trying to get lock")))
	assert.False(t, isTransient(errors.New("UNIQUE constraint failed")))
	assert.False(t, isTransient(nil))

	assert.True(t, isDomainError(ErrActiveRouteExists))
	assert.True(t, isDomainError(&ValidationError{Fields: []string{"plate_number"}}))
	assert.False(t, isDomainError(errors.New("database is locked")))
}
