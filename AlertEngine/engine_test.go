package AlertEngine

import (
	"fmt"
	"testing"
	"time"

	"Motorpool/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
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

	engine := NewEngine(db)
	engine.Now = func() time.Time { return testNow }
	return engine, db
}

func seedVehicle(t *testing.T, db *gorm.DB, plate, location string) uint {
	t.Helper()
	vehicle := Models.Vehicle{
		PlateNumber:   plate,
		VehicleModel:  "Sprinter",
		ChassisNumber: "CH-" + plate,
		Location:      location,
	}
	require.NoError(t, db.Create(&vehicle).Error)
	return vehicle.ID
}

func seedProblem(t *testing.T, db *gorm.DB, vehicleID uint, title string, reportedAt time.Time) {
	t.Helper()
	report := Models.ProblemReport{
		VehicleID:      vehicleID,
		Title:          title,
		Description:    title + " reported by driver",
		ReportDateTime: reportedAt,
	}
	require.NoError(t, db.Create(&report).Error)
}

func seedMaintenance(t *testing.T, db *gorm.DB, vehicleID uint, installedAt time.Time) {
	t.Helper()
	record := Models.MaintenanceRecord{
		VehicleID:           vehicleID,
		InstalledParts:      "Brake pads",
		InstalledDate:       datatypes.Date(installedAt),
		MaintenanceDateTime: installedAt,
	}
	require.NoError(t, db.Create(&record).Error)
}

func seedReading(t *testing.T, db *gorm.DB, vehicleID uint, value float64, at time.Time) {
	t.Helper()
	reading := Models.OdometerReading{
		VehicleID:       vehicleID,
		OdometerReading: value,
		ReadingDateTime: at,
	}
	require.NoError(t, db.Create(&reading).Error)
}

func alertsOfType(alerts []Alert, kind AlertType) []Alert {
	var out []Alert
	for _, a := range alerts {
		if a.AlertType == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestUnresolvedProblemSeverityTiers(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABC-1234", "Cairo")

	seedProblem(t, db, vehicleID, "Oil leak", testNow.AddDate(0, 0, -40))
	seedProblem(t, db, vehicleID, "Worn tires", testNow.AddDate(0, 0, -20))
	seedProblem(t, db, vehicleID, "Wiper blade", testNow.AddDate(0, 0, -5))

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)

	unresolved := alertsOfType(alerts, AlertUnresolved)
	require.Len(t, unresolved, 3)

	byTitle := map[string]Alert{}
	for _, a := range unresolved {
		byTitle[a.Title] = a
	}
	assert.Equal(t, LevelCritical, byTitle["Oil leak"].AlertLevel)
	assert.Equal(t, 40, byTitle["Oil leak"].DaysOpen)
	assert.Equal(t, LevelHigh, byTitle["Worn tires"].AlertLevel)
	assert.Equal(t, LevelMedium, byTitle["Wiper blade"].AlertLevel)
	assert.Equal(t, "ABC-1234", byTitle["Oil leak"].PlateNumber)
}

func TestMaintenanceResolvesProblem(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABC-1234", "Cairo")

	reportedAt := testNow.AddDate(0, 0, -10)
	seedProblem(t, db, vehicleID, "Oil leak", reportedAt)

	// Maintenance dated before the report does not resolve it
	seedMaintenance(t, db, vehicleID, reportedAt.AddDate(0, 0, -1))
	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	assert.Len(t, alertsOfType(alerts, AlertUnresolved), 1)

	// Maintenance on the report's own date resolves it
	seedMaintenance(t, db, vehicleID, reportedAt)
	alerts, err = engine.Evaluate("Cairo")
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(alerts, AlertUnresolved))
}

func TestRecurringThresholds(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABC-1234", "Cairo")
	// Keep the unresolved detector quiet about recurring inputs
	seedMaintenance(t, db, vehicleID, testNow)

	// One report in the window is not recurring
	seedProblem(t, db, vehicleID, "Brakes", testNow.AddDate(0, 0, -10))
	// A report outside the trailing 90 days never counts
	seedProblem(t, db, vehicleID, "Old issue", testNow.AddDate(0, 0, -91))
	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(alerts, AlertRecurring))

	// Two reports -> Medium
	seedProblem(t, db, vehicleID, "Brakes", testNow.AddDate(0, 0, -8))
	alerts, err = engine.Evaluate("Cairo")
	require.NoError(t, err)
	recurring := alertsOfType(alerts, AlertRecurring)
	require.Len(t, recurring, 1)
	assert.Equal(t, LevelMedium, recurring[0].AlertLevel)
	assert.Equal(t, 2, recurring[0].ProblemCount)
	assert.Equal(t, "Brakes", recurring[0].ProblemTitles)

	// Three reports -> High, distinct titles joined in report order
	seedProblem(t, db, vehicleID, "Overheating", testNow.AddDate(0, 0, -3))
	alerts, err = engine.Evaluate("Cairo")
	require.NoError(t, err)
	recurring = alertsOfType(alerts, AlertRecurring)
	require.Len(t, recurring, 1)
	assert.Equal(t, LevelHigh, recurring[0].AlertLevel)
	assert.Equal(t, "Brakes, Overheating", recurring[0].ProblemTitles)

	// Five reports -> Critical
	seedProblem(t, db, vehicleID, "Brakes", testNow.AddDate(0, 0, -2))
	seedProblem(t, db, vehicleID, "Brakes", testNow.AddDate(0, 0, -1))
	alerts, err = engine.Evaluate("Cairo")
	require.NoError(t, err)
	recurring = alertsOfType(alerts, AlertRecurring)
	require.Len(t, recurring, 1)
	assert.Equal(t, LevelCritical, recurring[0].AlertLevel)
	assert.Equal(t, 5, recurring[0].ProblemCount)
}

func TestOdometerRegressionDetected(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABC-1234", "Cairo")

	seedReading(t, db, vehicleID, 5000, testNow.AddDate(0, 0, -2))
	seedReading(t, db, vehicleID, 4900, testNow.AddDate(0, 0, -1))

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	anomalies := alertsOfType(alerts, AlertOdometerAnomaly)
	require.Len(t, anomalies, 1)
	assert.Equal(t, LevelHigh, anomalies[0].AlertLevel)
	assert.Equal(t, ReasonDecreased, anomalies[0].AnomalyReason)
	assert.Equal(t, 4900.0, anomalies[0].LastOdometerReading)
}

func TestOdometerJumpWindow(t *testing.T) {
	engine, db := newTestEngine(t)

	// 600 km in 12 hours is suspicious
	fast := seedVehicle(t, db, "AAA-1111", "Cairo")
	seedReading(t, db, fast, 1000, testNow.Add(-13*time.Hour))
	seedReading(t, db, fast, 1600, testNow.Add(-1*time.Hour))

	// The same distance over three days is not
	slow := seedVehicle(t, db, "BBB-2222", "Cairo")
	seedReading(t, db, slow, 1000, testNow.AddDate(0, 0, -3))
	seedReading(t, db, slow, 1600, testNow)

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	anomalies := alertsOfType(alerts, AlertOdometerAnomaly)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "AAA-1111", anomalies[0].PlateNumber)
	assert.Equal(t, ReasonJump, anomalies[0].AnomalyReason)
}

func TestOdometerStaleWindow(t *testing.T) {
	engine, db := newTestEngine(t)

	stale := seedVehicle(t, db, "AAA-1111", "Cairo")
	seedReading(t, db, stale, 1000, testNow.AddDate(0, 0, -31))
	seedReading(t, db, stale, 1000, testNow)

	// Unchanged for 29 days is still within tolerance
	idle := seedVehicle(t, db, "BBB-2222", "Cairo")
	seedReading(t, db, idle, 1000, testNow.AddDate(0, 0, -29))
	seedReading(t, db, idle, 1000, testNow)

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	anomalies := alertsOfType(alerts, AlertOdometerAnomaly)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "AAA-1111", anomalies[0].PlateNumber)
	assert.Equal(t, ReasonStale, anomalies[0].AnomalyReason)
}

func TestOdometerRegressionTakesPrecedence(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABC-1234", "Cairo")

	// Both a regression and a jump in the same history: one alert,
	// regression wins
	seedReading(t, db, vehicleID, 5000, testNow.Add(-48*time.Hour))
	seedReading(t, db, vehicleID, 4000, testNow.Add(-24*time.Hour))
	seedReading(t, db, vehicleID, 4800, testNow.Add(-12*time.Hour))

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	anomalies := alertsOfType(alerts, AlertOdometerAnomaly)
	require.Len(t, anomalies, 1)
	assert.Equal(t, ReasonDecreased, anomalies[0].AnomalyReason)
}

func TestNormalReadingSequenceIsQuiet(t *testing.T) {
	engine, db := newTestEngine(t)
	vehicleID := seedVehicle(t, db, "ABG-6556", "Cairo")

	seedReading(t, db, vehicleID, 20022, testNow.AddDate(0, 0, -6))
	seedReading(t, db, vehicleID, 20169, testNow.AddDate(0, 0, -4))
	seedReading(t, db, vehicleID, 20172, testNow.AddDate(0, 0, -1))

	// A single reading elsewhere never forms a pair
	lone := seedVehicle(t, db, "CCC-3333", "Cairo")
	seedReading(t, db, lone, 100, testNow)

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(alerts, AlertOdometerAnomaly))
}

func TestEvaluateScopedToLocation(t *testing.T) {
	engine, db := newTestEngine(t)

	other := seedVehicle(t, db, "ZZZ-9999", "Alexandria")
	seedProblem(t, db, other, "Oil leak", testNow.AddDate(0, 0, -40))
	seedReading(t, db, other, 5000, testNow.AddDate(0, 0, -2))
	seedReading(t, db, other, 4000, testNow.AddDate(0, 0, -1))

	alerts, err := engine.Evaluate("Cairo")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSummarize(t *testing.T) {
	alerts := []Alert{
		{AlertType: AlertUnresolved},
		{AlertType: AlertUnresolved},
		{AlertType: AlertRecurring},
		{AlertType: AlertOdometerAnomaly},
	}
	summary := Summarize(alerts)
	assert.Equal(t, 2, summary.UnresolvedProblems)
	assert.Equal(t, 1, summary.RecurringIssues)
	assert.Equal(t, 1, summary.OdometerAnomalies)
	assert.Equal(t, 4, summary.TotalActiveIssues)

	assert.Equal(t, Summary{}, Summarize(nil))
}
