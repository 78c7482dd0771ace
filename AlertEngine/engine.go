package AlertEngine

import (
	"fmt"
	"strings"
	"time"

	"Motorpool/Models"

	"gorm.io/gorm"
)

const (
	recurringWindowDays = 90
	recurringMinReports = 2

	jumpThresholdKm = 500
	jumpWindow      = 24 * time.Hour
	staleWindow     = 30 * 24 * time.Hour
)

// Anomaly reasons, in precedence order: regression > jump > stale.
const (
	ReasonDecreased = "Odometer reading decreased"
	ReasonJump      = "Suspicious odometer jump"
	ReasonStale     = "No odometer change for extended period"
)

// Engine classifies the vehicles of one location into maintenance alerts.
// It only reads; it is stateless and safe to call from concurrent requests.
type Engine struct {
	DB *gorm.DB

	// Now is the evaluation clock, overridable in tests.
	Now func() time.Time
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db, Now: time.Now}
}

// snapshot is one consistent read of everything the detectors consume,
// keyed by vehicle id.
type snapshot struct {
	vehicles    []Models.Vehicle
	problems    map[uint][]Models.ProblemReport
	maintenance map[uint][]Models.MaintenanceRecord
	readings    map[uint][]Models.OdometerReading
}

// Evaluate runs the three detectors over one snapshot of the location's
// vehicles. Absence of alerts is a valid result, never an error.
func (e *Engine) Evaluate(location string) ([]Alert, error) {
	// The detectors never write; the transaction only pins one consistent
	// snapshot for all three passes.
	tx := e.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("opening alert snapshot: %w", tx.Error)
	}
	defer tx.Rollback()

	snap, err := loadSnapshot(tx, location)
	if err != nil {
		return nil, fmt.Errorf("loading alert snapshot: %w", err)
	}

	now := e.Now()
	alerts := []Alert{}
	alerts = append(alerts, unresolvedProblems(snap, now)...)
	alerts = append(alerts, recurringIssues(snap, now)...)
	alerts = append(alerts, odometerAnomalies(snap)...)
	return alerts, nil
}

func loadSnapshot(tx *gorm.DB, location string) (*snapshot, error) {
	snap := &snapshot{
		problems:    map[uint][]Models.ProblemReport{},
		maintenance: map[uint][]Models.MaintenanceRecord{},
		readings:    map[uint][]Models.OdometerReading{},
	}

	if err := tx.Where("location = ?", location).
		Order("plate_number ASC").
		Find(&snap.vehicles).Error; err != nil {
		return nil, err
	}
	if len(snap.vehicles) == 0 {
		return snap, nil
	}

	ids := make([]uint, 0, len(snap.vehicles))
	for _, v := range snap.vehicles {
		ids = append(ids, v.ID)
	}

	var problems []Models.ProblemReport
	if err := tx.Where("vehicle_id IN ?", ids).
		Order("report_date_time ASC").Order("id ASC").
		Find(&problems).Error; err != nil {
		return nil, err
	}
	for _, p := range problems {
		snap.problems[p.VehicleID] = append(snap.problems[p.VehicleID], p)
	}

	var records []Models.MaintenanceRecord
	if err := tx.Where("vehicle_id IN ?", ids).
		Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		snap.maintenance[r.VehicleID] = append(snap.maintenance[r.VehicleID], r)
	}

	// One pass over the ledger for every vehicle; per-vehicle order is
	// reading time ascending with the id tiebreak for equal timestamps.
	var readings []Models.OdometerReading
	if err := tx.Where("vehicle_id IN ?", ids).
		Order("vehicle_id ASC").Order("reading_date_time ASC").Order("id ASC").
		Find(&readings).Error; err != nil {
		return nil, err
	}
	for _, r := range readings {
		snap.readings[r.VehicleID] = append(snap.readings[r.VehicleID], r)
	}

	return snap, nil
}

// unresolvedProblems emits one alert per problem report that no maintenance
// record has resolved. Any maintenance on the vehicle dated on or after the
// report's date counts as resolution; the linkage is intentionally coarse,
// the data model has no per-report maintenance reference.
func unresolvedProblems(snap *snapshot, now time.Time) []Alert {
	today := dateOf(now)
	var alerts []Alert
	for _, v := range snap.vehicles {
		for _, report := range snap.problems[v.ID] {
			if isResolved(report, snap.maintenance[v.ID]) {
				continue
			}
			daysOpen := int(today.Sub(dateOf(report.ReportDateTime)).Hours() / 24)
			level := LevelMedium
			switch {
			case daysOpen > 30:
				level = LevelCritical
			case daysOpen > 14:
				level = LevelHigh
			}
			reportedAt := report.ReportDateTime
			alerts = append(alerts, Alert{
				AlertType:       AlertUnresolved,
				AlertLevel:      level,
				VehicleID:       v.ID,
				PlateNumber:     v.PlateNumber,
				Model:           v.VehicleModel,
				ChassisNumber:   v.ChassisNumber,
				Location:        v.Location,
				ReportID:        report.ID,
				Title:           report.Title,
				Description:     report.Description,
				OdometerReading: report.OdometerReading,
				ReportDateTime:  &reportedAt,
				DaysOpen:        daysOpen,
			})
		}
	}
	return alerts
}

func isResolved(report Models.ProblemReport, records []Models.MaintenanceRecord) bool {
	reportDate := dateOf(report.ReportDateTime)
	for _, rec := range records {
		if !time.Time(rec.InstalledDate).Before(reportDate) {
			return true
		}
	}
	return false
}

// recurringIssues emits one alert per vehicle with two or more problem
// reports inside the trailing 90-day window ending at the evaluation moment.
func recurringIssues(snap *snapshot, now time.Time) []Alert {
	cutoff := now.AddDate(0, 0, -recurringWindowDays)
	var alerts []Alert
	for _, v := range snap.vehicles {
		var windowed []Models.ProblemReport
		for _, report := range snap.problems[v.ID] {
			if !report.ReportDateTime.Before(cutoff) {
				windowed = append(windowed, report)
			}
		}
		if len(windowed) < recurringMinReports {
			continue
		}

		level := LevelMedium
		switch {
		case len(windowed) >= 5:
			level = LevelCritical
		case len(windowed) >= 3:
			level = LevelHigh
		}

		// windowed is already in report time order
		first := windowed[0].ReportDateTime
		last := windowed[len(windowed)-1].ReportDateTime
		alerts = append(alerts, Alert{
			AlertType:       AlertRecurring,
			AlertLevel:      level,
			VehicleID:       v.ID,
			PlateNumber:     v.PlateNumber,
			Model:           v.VehicleModel,
			ChassisNumber:   v.ChassisNumber,
			Location:        v.Location,
			ProblemCount:    len(windowed),
			ProblemTitles:   distinctTitles(windowed),
			FirstReportDate: &first,
			LastReportDate:  &last,
		})
	}
	return alerts
}

func distinctTitles(reports []Models.ProblemReport) string {
	seen := map[string]bool{}
	var titles []string
	for _, r := range reports {
		if !seen[r.Title] {
			seen[r.Title] = true
			titles = append(titles, r.Title)
		}
	}
	return strings.Join(titles, ", ")
}

// odometerAnomalies scans each vehicle's reading sequence pairwise. A vehicle
// with at least one anomalous pair yields exactly one alert; when several
// anomaly kinds are present the reason follows the precedence
// regression > jump > stale. Severity is always High.
func odometerAnomalies(snap *snapshot) []Alert {
	var alerts []Alert
	for _, v := range snap.vehicles {
		readings := snap.readings[v.ID]
		if len(readings) < 2 {
			// no pair exists; expected, not an error
			continue
		}

		var regression, jump, stale bool
		for i := 1; i < len(readings); i++ {
			a, b := readings[i-1], readings[i]
			if !a.ReadingDateTime.Before(b.ReadingDateTime) {
				continue
			}
			gap := b.ReadingDateTime.Sub(a.ReadingDateTime)
			delta := b.OdometerReading - a.OdometerReading
			switch {
			case delta < 0:
				regression = true
			case delta > jumpThresholdKm && gap <= jumpWindow:
				jump = true
			case delta == 0 && gap > staleWindow:
				stale = true
			}
		}

		var reason string
		switch {
		case regression:
			reason = ReasonDecreased
		case jump:
			reason = ReasonJump
		case stale:
			reason = ReasonStale
		default:
			continue
		}

		last := readings[len(readings)-1]
		lastAt := last.ReadingDateTime
		alerts = append(alerts, Alert{
			AlertType:           AlertOdometerAnomaly,
			AlertLevel:          LevelHigh,
			VehicleID:           v.ID,
			PlateNumber:         v.PlateNumber,
			Model:               v.VehicleModel,
			ChassisNumber:       v.ChassisNumber,
			Location:            v.Location,
			LastOdometerReading: last.OdometerReading,
			LastReadingDate:     &lastAt,
			AnomalyReason:       reason,
		})
	}
	return alerts
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
