package Controllers

import (
	"time"

	"Motorpool/Models"
	"Motorpool/RouteLifecycle"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VehicleHandler contains handler methods for the vehicle registry
type VehicleHandler struct {
	DB     *gorm.DB
	Ledger *RouteLifecycle.Ledger
}

func NewVehicleHandler(db *gorm.DB) *VehicleHandler {
	return &VehicleHandler{
		DB:     db,
		Ledger: RouteLifecycle.NewLedger(db),
	}
}

type registerVehicleRequest struct {
	PlateNumber            string  `json:"plate_number" validate:"required"`
	Model                  string  `json:"model" validate:"required"`
	ChassisNumber          string  `json:"chassis_number" validate:"required"`
	RegistrationExpiration string  `json:"registration_expiration" validate:"required"`
	InitialOdometer        float64 `json:"initial_odometer" validate:"gte=0"`
}

// CreateVehicle registers a vehicle at the supervisor's location, appending
// the initial odometer reading to the ledger when provided.
// POST /api/vehicles
func (h *VehicleHandler) CreateVehicle(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	var req registerVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validationMessages(err),
		})
	}

	expiration, err := time.Parse("2006-01-02", req.RegistrationExpiration)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid date format",
			"message": "registration_expiration must be in YYYY-MM-DD format",
		})
	}

	var existing int64
	h.DB.Model(&Models.Vehicle{}).
		Where("plate_number = ? OR chassis_number = ?", req.PlateNumber, req.ChassisNumber).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Vehicle with this plate number or chassis number already exists.",
		})
	}

	vehicle := Models.Vehicle{
		PlateNumber:            req.PlateNumber,
		VehicleModel:           req.Model,
		ChassisNumber:          req.ChassisNumber,
		Location:               location,
		RegistrationExpiration: datatypes.Date(expiration),
	}

	tx := h.DB.Begin()
	if tx.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Transaction error",
			"message": tx.Error.Error(),
		})
	}
	if err := tx.Create(&vehicle).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to register vehicle",
			"message": err.Error(),
		})
	}
	if req.InitialOdometer > 0 {
		if err := h.Ledger.Append(tx, vehicle.ID, req.InitialOdometer, time.Now()); err != nil {
			tx.Rollback()
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to record initial odometer reading",
				"message": err.Error(),
			})
		}
	}
	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to commit transaction",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Vehicle registered successfully",
		"vehicle_id": vehicle.ID,
	})
}

type vehicleRow struct {
	VehicleID      uint    `json:"vehicle_id"`
	PlateNumber    string  `json:"plate_number"`
	Model          string  `json:"model"`
	ChassisNumber  string  `json:"chassis_number"`
	Location       string  `json:"location"`
	LatestOdometer float64 `json:"latest_odometer"`
	Status         string  `json:"status"`
	CurrentDriver  string  `json:"current_driver,omitempty"`
}

// GetVehicles lists the location's vehicles with their latest odometer value,
// availability status and, when in use, the current driver.
// GET /api/vehicles
func (h *VehicleHandler) GetVehicles(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	var vehicles []Models.Vehicle
	if err := h.DB.Where("location = ?", location).
		Order("plate_number ASC").
		Find(&vehicles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch vehicles",
			"message": err.Error(),
		})
	}
	if len(vehicles) == 0 {
		return c.JSON(fiber.Map{
			"vehicles": []vehicleRow{},
			"stats":    fiber.Map{"total_vehicles": 0, "in_use": 0, "available": 0},
		})
	}

	ids := make([]uint, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}

	// Open routes mark vehicles as In Use and name the current driver.
	type openRouteRow struct {
		VehicleID uint
		FirstName string
		LastName  string
	}
	var openRoutes []openRouteRow
	if err := h.DB.Table("routes r").
		Select("r.vehicle_id, d.first_name, d.last_name").
		Joins("LEFT JOIN drivers d ON d.id = r.driver_id").
		Where("r.vehicle_id IN ? AND r.end_date_time IS NULL AND r.deleted_at IS NULL", ids).
		Scan(&openRoutes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch vehicle status",
			"message": err.Error(),
		})
	}
	driverByVehicle := make(map[uint]string, len(openRoutes))
	for _, r := range openRoutes {
		driverByVehicle[r.VehicleID] = r.FirstName + " " + r.LastName
	}

	// Latest ledger entry per vehicle; the max id is the newest append.
	type latestRow struct {
		VehicleID       uint
		OdometerReading float64
	}
	var latest []latestRow
	if err := h.DB.Raw(`
		SELECT vehicle_id, odometer_reading
		FROM odometer_readings
		WHERE id IN (
			SELECT MAX(id) FROM odometer_readings WHERE vehicle_id IN ? GROUP BY vehicle_id
		)
	`, ids).Scan(&latest).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch odometer readings",
			"message": err.Error(),
		})
	}
	latestByVehicle := make(map[uint]float64, len(latest))
	for _, r := range latest {
		latestByVehicle[r.VehicleID] = r.OdometerReading
	}

	rows := make([]vehicleRow, 0, len(vehicles))
	inUse := 0
	for _, v := range vehicles {
		row := vehicleRow{
			VehicleID:      v.ID,
			PlateNumber:    v.PlateNumber,
			Model:          v.VehicleModel,
			ChassisNumber:  v.ChassisNumber,
			Location:       v.Location,
			LatestOdometer: latestByVehicle[v.ID],
			Status:         "Available",
		}
		if driver, ok := driverByVehicle[v.ID]; ok {
			row.Status = "In Use"
			row.CurrentDriver = driver
			inUse++
		}
		rows = append(rows, row)
	}

	return c.JSON(fiber.Map{
		"vehicles": rows,
		"stats": fiber.Map{
			"total_vehicles": len(vehicles),
			"in_use":         inUse,
			"available":      len(vehicles) - inUse,
		},
	})
}
