package Controllers

import (
	"errors"
	"strconv"
	"time"

	"Motorpool/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProblemHandler contains handler methods for problem reports
type ProblemHandler struct {
	DB *gorm.DB
}

func NewProblemHandler(db *gorm.DB) *ProblemHandler {
	return &ProblemHandler{DB: db}
}

type reportProblemRequest struct {
	PlateNumber     string  `json:"plate_number" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description" validate:"required"`
	OdometerReading float64 `json:"odometer_reading" validate:"gt=0"`
}

// CreateProblem files a problem report against the vehicle with the given
// plate. Reports are immutable once created.
// POST /api/problems
func (h *ProblemHandler) CreateProblem(c *fiber.Ctx) error {
	var req reportProblemRequest
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

	var vehicle Models.Vehicle
	err := h.DB.Where("plate_number = ?", req.PlateNumber).First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Vehicle not found",
			"message": "No vehicle with this plate number",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	report := Models.ProblemReport{
		VehicleID:       vehicle.ID,
		Title:           req.Title,
		Description:     req.Description,
		OdometerReading: req.OdometerReading,
		ReportDateTime:  time.Now(),
	}
	if err := h.DB.Create(&report).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create problem report",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Problem reported successfully",
		"report_id": report.ID,
	})
}

// GetVehicleProblems lists a vehicle's problem reports, newest first.
// GET /api/vehicles/:id/problems
func (h *ProblemHandler) GetVehicleProblems(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid ID",
			"message": "ID must be a valid number",
		})
	}

	var reports []Models.ProblemReport
	if err := h.DB.Where("vehicle_id = ?", vehicleID).
		Order("report_date_time DESC").
		Find(&reports).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch problem reports",
			"message": err.Error(),
		})
	}
	return c.JSON(reports)
}
