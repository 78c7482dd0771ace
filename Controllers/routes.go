package Controllers

import (
	"errors"
	"strconv"
	"time"

	"Motorpool/Models"
	"Motorpool/RouteLifecycle"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RouteHandler contains handler methods for the route lifecycle
type RouteHandler struct {
	DB      *gorm.DB
	Manager *RouteLifecycle.Manager
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(db *gorm.DB) *RouteHandler {
	return &RouteHandler{
		DB:      db,
		Manager: RouteLifecycle.NewManager(db),
	}
}

type startRouteRequest struct {
	Model         string                     `json:"model"`
	PlateNumber   string                     `json:"plate_number"`
	ChassisNumber string                     `json:"chassis_number"`
	StartOdometer float64                    `json:"start_odometer"`
	Inspection    Models.InspectionChecklist `json:"inspection"`
	Remarks       string                     `json:"remarks"`
}

// StartRoute opens a new route for the authenticated driver.
// POST /api/routes
func (h *RouteHandler) StartRoute(c *fiber.Ctx) error {
	driverID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not Logged In.",
		})
	}

	var req startRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	routeID, err := h.Manager.StartRoute(RouteLifecycle.StartRouteRequest{
		DriverID:      driverID,
		PlateNumber:   req.PlateNumber,
		Model:         req.Model,
		ChassisNumber: req.ChassisNumber,
		StartOdometer: req.StartOdometer,
		Inspection:    req.Inspection,
		Remarks:       req.Remarks,
	})
	if err != nil {
		return routeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Route started successfully",
		"route_id": routeID,
	})
}

type endRouteRequest struct {
	EndOdometer         float64 `json:"end_odometer"`
	PostInspectionNotes string  `json:"post_inspection_notes"`
}

// EndRoute completes the authenticated driver's open route.
// PUT /api/routes/:id/end
func (h *RouteHandler) EndRoute(c *fiber.Ctx) error {
	driverID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not Logged In.",
		})
	}

	routeID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid ID",
			"message": "ID must be a valid number",
		})
	}

	var req endRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}

	if err := h.Manager.EndRoute(driverID, uint(routeID), req.EndOdometer, req.PostInspectionNotes); err != nil {
		return routeError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Route completed successfully"})
}

// GetOpenRoute returns the authenticated driver's open route, null if none.
// GET /api/routes/open
func (h *RouteHandler) GetOpenRoute(c *fiber.Ctx) error {
	driverID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Not Logged In.",
		})
	}

	route, err := h.Manager.GetOpenRouteFor(driverID)
	if errors.Is(err, RouteLifecycle.ErrRouteNotFound) {
		return c.JSON(fiber.Map{"open_route": nil})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch open route",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"open_route": route})
}

type routeRow struct {
	RouteID       uint       `json:"route_id"`
	StartDateTime time.Time  `json:"start_date_time"`
	EndDateTime   *time.Time `json:"end_date_time"`
	StartOdometer float64    `json:"start_odometer"`
	EndOdometer   *float64   `json:"end_odometer"`
	FirstName     string     `json:"-"`
	LastName      string     `json:"-"`
	DriverName    string     `json:"driver_name"`
	PlateNumber   string     `json:"plate_number"`
	Model         string     `json:"model"`
	Status        string     `json:"status"`
	Distance      float64    `json:"distance"`
}

// GetRoutes lists route history: a driver sees their own routes, a supervisor
// sees routes of vehicles in their location.
// GET /api/routes
func (h *RouteHandler) GetRoutes(c *fiber.Ctx) error {
	query := h.DB.Table("routes r").
		Select("r.id AS route_id, r.start_date_time, r.end_date_time, r.start_odometer, r.end_odometer, d.first_name, d.last_name, v.plate_number, v.model").
		Joins("LEFT JOIN drivers d ON d.id = r.driver_id").
		Joins("LEFT JOIN vehicles v ON v.id = r.vehicle_id").
		Where("r.deleted_at IS NULL").
		Order("r.start_date_time DESC")

	switch c.Locals("role") {
	case "driver":
		driverID, err := currentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not Logged In.",
			})
		}
		query = query.Where("r.driver_id = ?", driverID)
	default:
		location, err := currentLocation(c)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "No location scope for this account",
			})
		}
		query = query.Where("v.location = ?", location)
	}

	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		query = query.Limit(limit)
	}

	var rows []routeRow
	if err := query.Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch routes",
			"message": err.Error(),
		})
	}

	for i := range rows {
		decorateRouteRow(&rows[i])
	}
	return c.JSON(rows)
}

func decorateRouteRow(row *routeRow) {
	row.DriverName = row.FirstName + " " + row.LastName
	if row.EndDateTime == nil {
		row.Status = "In Progress"
	} else {
		row.Status = "Completed"
		if row.EndOdometer != nil {
			row.Distance = *row.EndOdometer - row.StartOdometer
		}
	}
}

// routeError maps lifecycle errors onto the API response shape.
func routeError(c *fiber.Ctx, err error) error {
	var validation *RouteLifecycle.ValidationError
	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": validation.Fields,
		})
	case errors.Is(err, RouteLifecycle.ErrActiveRouteExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Active route exists",
			"message": "End the current route before starting a new one",
		})
	case errors.Is(err, RouteLifecycle.ErrRouteNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Route not found",
			"message": "No open route with this id",
		})
	case errors.Is(err, RouteLifecycle.ErrOdometerRegression):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Odometer regression",
			"message": "End odometer cannot be lower than the start odometer",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database error",
			"message": err.Error(),
		})
	}
}
