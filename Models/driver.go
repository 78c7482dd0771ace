package Models

import "gorm.io/gorm"

type Driver struct {
	gorm.Model
	FirstName               string `json:"first_name"`
	MiddleName              string `json:"middle_name"`
	LastName                string `json:"last_name"`
	EmployeeNo              string `json:"employee_no" gorm:"uniqueIndex;size:20"`
	DateOfBirth             string `json:"date_of_birth"`
	Age                     int    `json:"age"`
	EmailAddress            string `json:"email_address" gorm:"uniqueIndex;size:100"`
	ContactNumber           string `json:"contact_number"`
	Address                 string `json:"address"`
	DriverLicenseNumber     string `json:"driver_license_number"`
	DriverLicenseExpiration string `json:"driver_license_expiration"`
	Password                []byte `json:"-"`
}

type Supervisor struct {
	gorm.Model
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email" gorm:"uniqueIndex;size:100"`
	ContactNumber string `json:"contact_number"`
	Location      string `json:"location"`
	Password      []byte `json:"-"`
}

func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}

func (s *Supervisor) FullName() string {
	return s.FirstName + " " + s.LastName
}
