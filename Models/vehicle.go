package Models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	PlateNumber            string         `json:"plate_number" gorm:"uniqueIndex;size:20;not null"`
	VehicleModel           string         `json:"model" gorm:"column:model"`
	ChassisNumber          string         `json:"chassis_number" gorm:"uniqueIndex;size:50"`
	Location               string         `json:"location" gorm:"index"`
	RegistrationExpiration datatypes.Date `json:"registration_expiration"`
}
