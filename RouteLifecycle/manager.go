package RouteLifecycle

import (
	"errors"
	"math"
	"sync"
	"time"

	"Motorpool/Models"

	"gorm.io/gorm"
)

// Manager owns the route state machine (Open -> Closed) and the
// one-active-route-per-driver invariant. It is the only writer of Route and
// OdometerReading rows.
type Manager struct {
	DB     *gorm.DB
	Ledger *Ledger

	locks sync.Map // driverID -> *sync.Mutex
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		DB:     db,
		Ledger: NewLedger(db),
	}
}

// StartRouteRequest carries everything needed to open a route.
type StartRouteRequest struct {
	DriverID      uint
	PlateNumber   string
	Model         string
	ChassisNumber string
	StartOdometer float64
	Inspection    Models.InspectionChecklist
	Remarks       string
}

func (req *StartRouteRequest) validate() error {
	var fields []string
	if req.DriverID == 0 {
		fields = append(fields, "driver_id")
	}
	if req.PlateNumber == "" {
		fields = append(fields, "plate_number")
	}
	if math.IsNaN(req.StartOdometer) || math.IsInf(req.StartOdometer, 0) || req.StartOdometer <= 0 {
		fields = append(fields, "start_odometer")
	}
	// Full-checklist policy: every inspection item must be checked.
	for _, item := range req.Inspection.Unchecked() {
		fields = append(fields, "inspection."+item)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// StartRoute opens a route for the driver and appends the start reading to
// the ledger. The open-route check and the insert run inside one transaction,
// serialized per driver, so two concurrent starts cannot both succeed.
func (m *Manager) StartRoute(req StartRouteRequest) (uint, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}

	lock := m.driverLock(req.DriverID)
	lock.Lock()
	defer lock.Unlock()

	var routeID uint
	err := m.withTx("start route", func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&Models.Route{}).
			Where("driver_id = ? AND end_date_time IS NULL", req.DriverID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrActiveRouteExists
		}

		vehicle, err := m.resolveVehicle(tx, req)
		if err != nil {
			return err
		}

		now := time.Now()
		route := Models.Route{
			DriverID:      req.DriverID,
			VehicleID:     vehicle.ID,
			StartOdometer: req.StartOdometer,
			StartDateTime: now,
			Inspection:    req.Inspection,
			Remarks:       req.Remarks,
		}
		if err := tx.Create(&route).Error; err != nil {
			return err
		}
		if err := m.Ledger.Append(tx, vehicle.ID, req.StartOdometer, now); err != nil {
			return err
		}
		routeID = route.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return routeID, nil
}

// resolveVehicle finds the vehicle by plate number, creating it if missing
// and refreshing model/chassis details if they changed.
func (m *Manager) resolveVehicle(tx *gorm.DB, req StartRouteRequest) (*Models.Vehicle, error) {
	var vehicle Models.Vehicle
	err := tx.Where("plate_number = ?", req.PlateNumber).First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		vehicle = Models.Vehicle{
			PlateNumber:   req.PlateNumber,
			VehicleModel:  req.Model,
			ChassisNumber: req.ChassisNumber,
		}
		if err := tx.Create(&vehicle).Error; err != nil {
			return nil, err
		}
		return &vehicle, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Model != "" && req.Model != vehicle.VehicleModel {
		updates["model"] = req.Model
	}
	if req.ChassisNumber != "" && req.ChassisNumber != vehicle.ChassisNumber {
		updates["chassis_number"] = req.ChassisNumber
	}
	if len(updates) > 0 {
		if err := tx.Model(&vehicle).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &vehicle, nil
}

// EndRoute closes the driver's open route and appends the final reading.
// Closed is terminal; a second EndRoute on the same id fails with
// ErrRouteNotFound, as does a route id belonging to another driver.
func (m *Manager) EndRoute(driverID, routeID uint, endOdometer float64, postInspectionNotes string) error {
	if math.IsNaN(endOdometer) || math.IsInf(endOdometer, 0) || endOdometer <= 0 {
		return &ValidationError{Fields: []string{"end_odometer"}}
	}

	return m.withTx("end route", func(tx *gorm.DB) error {
		var route Models.Route
		err := tx.Where("id = ? AND driver_id = ? AND end_date_time IS NULL", routeID, driverID).First(&route).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRouteNotFound
		}
		if err != nil {
			return err
		}
		if endOdometer < route.StartOdometer {
			return ErrOdometerRegression
		}

		now := time.Now()
		updates := map[string]interface{}{
			"end_odometer":  endOdometer,
			"end_date_time": now,
		}
		if postInspectionNotes != "" {
			updates["remarks"] = postInspectionNotes
		}
		if err := tx.Model(&route).Updates(updates).Error; err != nil {
			return err
		}
		return m.Ledger.Append(tx, route.VehicleID, endOdometer, now)
	})
}

// GetOpenRouteFor returns the driver's open route, ErrRouteNotFound if none.
func (m *Manager) GetOpenRouteFor(driverID uint) (*Models.Route, error) {
	var route Models.Route
	err := m.DB.Where("driver_id = ? AND end_date_time IS NULL", driverID).First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get open route", Err: err}
	}
	return &route, nil
}

func (m *Manager) driverLock(driverID uint) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(driverID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// withTx wraps one logical operation in a transaction, retrying once on a
// transient storage failure. Domain errors pass through untouched; storage
// errors surface as PersistenceError.
func (m *Manager) withTx(op string, fn func(tx *gorm.DB) error) error {
	run := func() error {
		tx := m.DB.Begin()
		if tx.Error != nil {
			return tx.Error
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	}

	err := run()
	if err != nil && isTransient(err) && !isDomainError(err) {
		err = run()
	}
	if err == nil || isDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
