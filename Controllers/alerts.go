package Controllers

import (
	"Motorpool/AlertEngine"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// AlertHandler contains handler methods for supervisor alerts
type AlertHandler struct {
	Engine *AlertEngine.Engine
}

func NewAlertHandler(db *gorm.DB) *AlertHandler {
	return &AlertHandler{Engine: AlertEngine.NewEngine(db)}
}

// GetAlerts evaluates the supervisor's location and returns the active
// alerts ordered by severity, most recent first within each level.
// GET /api/alerts
func (h *AlertHandler) GetAlerts(c *fiber.Ctx) error {
	location, err := currentLocation(c)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "No location scope for this account",
		})
	}

	alerts, err := h.Engine.Evaluate(location)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to evaluate alerts",
			"message": err.Error(),
		})
	}

	slices.SortStableFunc(alerts, func(a, b AlertEngine.Alert) int {
		if a.AlertLevel.Rank() != b.AlertLevel.Rank() {
			return a.AlertLevel.Rank() - b.AlertLevel.Rank()
		}
		if a.OccurredAt().After(b.OccurredAt()) {
			return -1
		}
		if a.OccurredAt().Before(b.OccurredAt()) {
			return 1
		}
		return 0
	})

	return c.JSON(fiber.Map{
		"summary": AlertEngine.Summarize(alerts),
		"alerts":  alerts,
	})
}
