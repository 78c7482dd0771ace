package RouteLifecycle

import (
	"time"

	"Motorpool/Models"

	"gorm.io/gorm"
)

// Ledger is the append-only per-vehicle odometer history. There is no update
// or delete path; readers never block writers.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// Append records one reading. Pass the surrounding transaction when the
// append must be atomic with other writes, nil to use the ledger's own handle.
func (l *Ledger) Append(tx *gorm.DB, vehicleID uint, value float64, at time.Time) error {
	if tx == nil {
		tx = l.DB
	}
	reading := Models.OdometerReading{
		VehicleID:       vehicleID,
		OdometerReading: value,
		ReadingDateTime: at,
	}
	return tx.Create(&reading).Error
}

// ReadingsFor returns the vehicle's readings ordered by reading time
// ascending. Equal timestamps keep insertion order via the id tiebreak.
func (l *Ledger) ReadingsFor(vehicleID uint) ([]Models.OdometerReading, error) {
	return readingsFor(l.DB, vehicleID)
}

func readingsFor(db *gorm.DB, vehicleID uint) ([]Models.OdometerReading, error) {
	var readings []Models.OdometerReading
	err := db.Where("vehicle_id = ?", vehicleID).
		Order("reading_date_time ASC").
		Order("id ASC").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
