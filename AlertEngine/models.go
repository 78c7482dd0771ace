package AlertEngine

import "time"

type AlertType string

const (
	AlertUnresolved      AlertType = "UNRESOLVED"
	AlertRecurring       AlertType = "RECURRING"
	AlertOdometerAnomaly AlertType = "ODOMETER_ANOMALY"
)

type AlertLevel string

const (
	LevelMedium   AlertLevel = "MEDIUM"
	LevelHigh     AlertLevel = "HIGH"
	LevelCritical AlertLevel = "CRITICAL"
)

// Rank orders levels for presentation, most severe first.
func (l AlertLevel) Rank() int {
	switch l {
	case LevelCritical:
		return 0
	case LevelHigh:
		return 1
	default:
		return 2
	}
}

// Alert is a derived classification of a vehicle issue. Alerts are not
// persisted; each evaluation recomputes them from the current stores.
type Alert struct {
	AlertType  AlertType  `json:"alert_type"`
	AlertLevel AlertLevel `json:"alert_level"`

	VehicleID     uint   `json:"vehicle_id"`
	PlateNumber   string `json:"plate_number"`
	Model         string `json:"model"`
	ChassisNumber string `json:"chassis_number"`
	Location      string `json:"location"`

	// Unresolved-problem evidence
	ReportID        uint       `json:"report_id,omitempty"`
	Title           string     `json:"title,omitempty"`
	Description     string     `json:"description,omitempty"`
	OdometerReading float64    `json:"odometer_reading,omitempty"`
	ReportDateTime  *time.Time `json:"report_date_time,omitempty"`
	DaysOpen        int        `json:"days_open,omitempty"`

	// Recurring-issue evidence
	ProblemCount    int        `json:"problem_count,omitempty"`
	ProblemTitles   string     `json:"problem_titles,omitempty"`
	FirstReportDate *time.Time `json:"first_report_date,omitempty"`
	LastReportDate  *time.Time `json:"last_report_date,omitempty"`

	// Odometer-anomaly evidence
	LastOdometerReading float64    `json:"last_odometer_reading,omitempty"`
	LastReadingDate     *time.Time `json:"last_reading_date,omitempty"`
	AnomalyReason       string     `json:"anomaly_reason,omitempty"`
}

// OccurredAt returns the alert's recency anchor for presentation ordering.
func (a *Alert) OccurredAt() time.Time {
	switch a.AlertType {
	case AlertRecurring:
		if a.LastReportDate != nil {
			return *a.LastReportDate
		}
	case AlertOdometerAnomaly:
		if a.LastReadingDate != nil {
			return *a.LastReadingDate
		}
	default:
		if a.ReportDateTime != nil {
			return *a.ReportDateTime
		}
	}
	return time.Time{}
}

// Summary carries the per-detector counts shown on the alerts page.
type Summary struct {
	UnresolvedProblems int `json:"unresolved_problems"`
	RecurringIssues    int `json:"recurring_issues"`
	OdometerAnomalies  int `json:"odometer_anomalies"`
	TotalActiveIssues  int `json:"total_active_issues"`
}

// Summarize counts alerts by detector.
func Summarize(alerts []Alert) Summary {
	var s Summary
	for i := range alerts {
		switch alerts[i].AlertType {
		case AlertUnresolved:
			s.UnresolvedProblems++
		case AlertRecurring:
			s.RecurringIssues++
		case AlertOdometerAnomaly:
			s.OdometerAnomalies++
		}
	}
	s.TotalActiveIssues = s.UnresolvedProblems + s.RecurringIssues + s.OdometerAnomalies
	return s
}
