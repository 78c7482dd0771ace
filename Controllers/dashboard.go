package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardHandler contains handler methods for the supervisor dashboard
type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

type dashboardRouteRow struct {
	RouteID       uint       `json:"route_id"`
	DriverName    string     `json:"driver_name"`
	FirstName     string     `json:"-"`
	LastName      string     `json:"-"`
	PlateNumber   string     `json:"plate_number"`
	StartDateTime time.Time  `json:"start_date_time"`
	EndDateTime   *time.Time `json:"end_date_time"`
	Status        string     `json:"status" gorm:"-"`
}

type dashboardProblemRow struct {
	ProblemID      uint      `json:"problem_id"`
	PlateNumber    string    `json:"plate_number"`
	Title          string    `json:"title"`
	ReportDateTime time.Time `json:"report_date_time"`
}

// GetDashboard returns the headline counts and recent activity for the
// supervisor's location.
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	var vehicleCount int64
	if err := h.DB.Table("vehicles").
		Where("deleted_at IS NULL AND location = ?", location).
		Count(&vehicleCount).Error; err != nil {
		return dashboardError(c, err)
	}

	var driverCount int64
	if err := h.DB.Table("drivers").
		Where("deleted_at IS NULL").
		Count(&driverCount).Error; err != nil {
		return dashboardError(c, err)
	}

	var openProblemCount int64
	if err := h.DB.Table("problem_reports pr").
		Joins("JOIN vehicles v ON v.id = pr.vehicle_id").
		Where("pr.deleted_at IS NULL AND v.location = ?", location).
		Count(&openProblemCount).Error; err != nil {
		return dashboardError(c, err)
	}

	monthAgo := time.Now().AddDate(0, 0, -30)
	var servicedCount int64
	if err := h.DB.Table("maintenance_records mh").
		Joins("JOIN vehicles v ON v.id = mh.vehicle_id").
		Where("mh.deleted_at IS NULL AND v.location = ? AND mh.maintenance_date_time >= ?", location, monthAgo).
		Distinct("mh.vehicle_id").
		Count(&servicedCount).Error; err != nil {
		return dashboardError(c, err)
	}

	var recentRoutes []dashboardRouteRow
	if err := h.DB.Table("routes r").
		Select("r.id AS route_id, d.first_name, d.last_name, v.plate_number, r.start_date_time, r.end_date_time").
		Joins("JOIN drivers d ON d.id = r.driver_id").
		Joins("JOIN vehicles v ON v.id = r.vehicle_id").
		Where("r.deleted_at IS NULL AND v.location = ?", location).
		Order("r.start_date_time DESC").
		Limit(10).
		Scan(&recentRoutes).Error; err != nil {
		return dashboardError(c, err)
	}
	for i := range recentRoutes {
		recentRoutes[i].DriverName = recentRoutes[i].FirstName + " " + recentRoutes[i].LastName
		if recentRoutes[i].EndDateTime == nil {
			recentRoutes[i].Status = "In Progress"
		} else {
			recentRoutes[i].Status = "Completed"
		}
	}

	var recentProblems []dashboardProblemRow
	if err := h.DB.Table("problem_reports pr").
		Select("pr.id AS problem_id, v.plate_number, pr.title, pr.report_date_time").
		Joins("JOIN vehicles v ON v.id = pr.vehicle_id").
		Where("pr.deleted_at IS NULL AND v.location = ?", location).
		Order("pr.report_date_time DESC").
		Limit(5).
		Scan(&recentProblems).Error; err != nil {
		return dashboardError(c, err)
	}

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"total_vehicles":    vehicleCount,
			"total_drivers":     driverCount,
			"reported_problems": openProblemCount,
			"serviced_recently": servicedCount,
		},
		"recent_routes":   recentRoutes,
		"recent_problems": recentProblems,
	})
}

func dashboardError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Failed to load dashboard",
		"message": err.Error(),
	})
}
