package Controllers

import (
	"errors"
	"fmt"
	"time"

	"Motorpool/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaintenanceHandler contains handler methods for maintenance records
type MaintenanceHandler struct {
	DB *gorm.DB
}

func NewMaintenanceHandler(db *gorm.DB) *MaintenanceHandler {
	return &MaintenanceHandler{DB: db}
}

type logMaintenanceRequest struct {
	VehicleID           uint   `json:"vehicle_id" validate:"required"`
	InstalledParts      string `json:"installed_parts" validate:"required"`
	InstalledDate       string `json:"installed_date" validate:"required"`
	PartsSpecifications string `json:"parts_specifications"`
}

// CreateMaintenance logs maintenance work performed on a vehicle.
// POST /api/maintenance
func (h *MaintenanceHandler) CreateMaintenance(c *fiber.Ctx) error {
	var req logMaintenanceRequest
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

	installedDate, err := time.Parse("2006-01-02", req.InstalledDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid date format",
			"message": "installed_date must be in YYYY-MM-DD format",
		})
	}

	var vehicle Models.Vehicle
	err = h.DB.First(&vehicle, req.VehicleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Vehicle not found",
			"message": "The specified vehicle does not exist",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}

	record := Models.MaintenanceRecord{
		VehicleID:           req.VehicleID,
		InstalledParts:      req.InstalledParts,
		InstalledDate:       datatypes.Date(installedDate),
		PartsSpecifications: req.PartsSpecifications,
		MaintenanceDateTime: time.Now(),
	}
	if err := h.DB.Create(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to create maintenance record",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Maintenance recorded successfully",
		"maintenance_id": record.ID,
	})
}

type maintenanceRow struct {
	MaintenanceID       uint      `json:"maintenance_id"`
	PlateNumber         string    `json:"plate_number"`
	Model               string    `json:"model"`
	InstalledParts      string    `json:"installed_parts"`
	InstalledDate       time.Time `json:"-"`
	InstalledDateText   string    `json:"installed_date" gorm:"-"`
	PartsSpecifications string    `json:"parts_specifications"`
	MaintenanceDateTime time.Time `json:"maintenance_date_time"`
}

func (h *MaintenanceHandler) queryMaintenance(location, search string) ([]maintenanceRow, error) {
	query := h.DB.Table("maintenance_records mh").
		Select("mh.id AS maintenance_id, v.plate_number, v.model, mh.installed_parts, mh.installed_date, mh.parts_specifications, mh.maintenance_date_time").
		Joins("JOIN vehicles v ON v.id = mh.vehicle_id").
		Where("mh.deleted_at IS NULL AND v.location = ?", location).
		Order("mh.installed_date DESC").
		Order("mh.maintenance_date_time DESC")

	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"mh.installed_parts LIKE ? OR mh.parts_specifications LIKE ? OR v.plate_number LIKE ? OR v.model LIKE ?",
			like, like, like, like,
		)
	}

	var rows []maintenanceRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].InstalledDateText = rows[i].InstalledDate.Format("2006-01-02")
	}
	return rows, nil
}

// GetMaintenance lists the location's maintenance history with an optional
// free-text search over parts, specifications, plate and model.
// GET /api/maintenance?q=
func (h *MaintenanceHandler) GetMaintenance(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	rows, err := h.queryMaintenance(location, c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch maintenance history",
			"message": err.Error(),
		})
	}
	return c.JSON(rows)
}

// ExportMaintenance downloads the location's maintenance history as an Excel
// workbook.
// GET /api/maintenance/export
func (h *MaintenanceHandler) ExportMaintenance(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	rows, err := h.queryMaintenance(location, c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch maintenance history",
			"message": err.Error(),
		})
	}

	f := excelize.NewFile()
	sheetName := "Maintenance History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to build export",
			"message": err.Error(),
		})
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Plate Number", "Model", "Installed Parts", "Installed Date",
		"Parts Specifications", "Logged At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	for rowIndex, record := range rows {
		row := rowIndex + 2
		values := []interface{}{
			record.PlateNumber,
			record.Model,
			record.InstalledParts,
			record.InstalledDateText,
			record.PartsSpecifications,
			record.MaintenanceDateTime.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string('A' + rune(i))
		f.SetColWidth(sheetName, col, col, 22)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to build export",
			"message": err.Error(),
		})
	}

	filename := fmt.Sprintf("maintenance-history-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
