package Models

import (
	"time"

	"gorm.io/gorm"
)

// OdometerReading is one row of the append-only per-vehicle odometer ledger.
// Rows are never updated or deleted after insertion.
type OdometerReading struct {
	gorm.Model
	VehicleID       uint      `json:"vehicle_id" gorm:"index;not null"`
	OdometerReading float64   `json:"odometer_reading"`
	ReadingDateTime time.Time `json:"reading_date_time" gorm:"index"`
}

func (OdometerReading) TableName() string {
	return "odometer_readings"
}
