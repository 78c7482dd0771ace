package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaintenanceRecord is one maintenance event performed on a vehicle.
// InstalledDate is a plain date; resolution of problem reports compares
// dates, not times.
type MaintenanceRecord struct {
	gorm.Model
	VehicleID           uint           `json:"vehicle_id" gorm:"index;not null"`
	InstalledParts      string         `json:"installed_parts"`
	InstalledDate       datatypes.Date `json:"installed_date"`
	PartsSpecifications string         `json:"parts_specifications"`
	MaintenanceDateTime time.Time      `json:"maintenance_date_time"`
}

func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}
