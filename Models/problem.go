package Models

import (
	"time"

	"gorm.io/gorm"
)

// ProblemReport is a driver-reported vehicle issue. Immutable once created.
type ProblemReport struct {
	gorm.Model
	VehicleID       uint      `json:"vehicle_id" gorm:"index;not null"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	OdometerReading float64   `json:"odometer_reading"`
	ReportDateTime  time.Time `json:"report_date_time" gorm:"index"`
}

func (ProblemReport) TableName() string {
	return "problem_reports"
}
