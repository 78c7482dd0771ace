package Models

import (
	"time"

	"gorm.io/gorm"
)

// InspectionChecklist holds the ten pre-trip inspection items. Every item
// must be checked before a route may start.
type InspectionChecklist struct {
	Battery bool `json:"battery"`
	Lights  bool `json:"lights"`
	Oil     bool `json:"oil"`
	Water   bool `json:"water"`
	Brakes  bool `json:"brakes"`
	Air     bool `json:"air"`
	Gas     bool `json:"gas"`
	Engine  bool `json:"engine"`
	Tires   bool `json:"tires"`
	Self    bool `json:"self"`
}

// Unchecked returns the names of the items still unchecked, in checklist order.
func (c InspectionChecklist) Unchecked() []string {
	items := []struct {
		name    string
		checked bool
	}{
		{"battery", c.Battery},
		{"lights", c.Lights},
		{"oil", c.Oil},
		{"water", c.Water},
		{"brakes", c.Brakes},
		{"air", c.Air},
		{"gas", c.Gas},
		{"engine", c.Engine},
		{"tires", c.Tires},
		{"self", c.Self},
	}
	var missing []string
	for _, item := range items {
		if !item.checked {
			missing = append(missing, item.name)
		}
	}
	return missing
}

func (c InspectionChecklist) AllChecked() bool {
	return len(c.Unchecked()) == 0
}

// Route is one driver/vehicle trip. A route with a null EndDateTime is open;
// setting it closes the route permanently.
type Route struct {
	gorm.Model
	DriverID      uint       `json:"driver_id" gorm:"index;not null"`
	VehicleID     uint       `json:"vehicle_id" gorm:"index;not null"`
	StartOdometer float64    `json:"start_odometer"`
	StartDateTime time.Time  `json:"start_date_time"`
	EndOdometer   *float64   `json:"end_odometer"`
	EndDateTime   *time.Time `json:"end_date_time" gorm:"index"`

	Inspection InspectionChecklist `json:"inspection" gorm:"embedded;embeddedPrefix:inspection_"`
	Remarks    string              `json:"remarks"`
}

func (Route) TableName() string {
	return "routes"
}

// IsOpen reports whether the route has not been completed yet.
func (r *Route) IsOpen() bool {
	return r.EndDateTime == nil
}

// Distance returns the odometer distance covered, zero while the route is open.
func (r *Route) Distance() float64 {
	if r.EndOdometer == nil {
		return 0
	}
	return *r.EndOdometer - r.StartOdometer
}
