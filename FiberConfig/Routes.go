package FiberConfig

import (
	"fmt"
	"os"

	"Motorpool/Controllers"
	"Motorpool/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	authHandler := Controllers.NewAuthHandler(db)
	routeHandler := Controllers.NewRouteHandler(db)
	vehicleHandler := Controllers.NewVehicleHandler(db)
	problemHandler := Controllers.NewProblemHandler(db)
	maintenanceHandler := Controllers.NewMaintenanceHandler(db)
	alertHandler := Controllers.NewAlertHandler(db)
	dashboardHandler := Controllers.NewDashboardHandler(db)

	// Public routes
	app.Post("/api/login", authHandler.Login)
	app.Post("/api/logout", authHandler.Logout)
	app.Post("/api/register/driver", authHandler.RegisterDriver)
	app.Post("/api/register/supervisor", authHandler.RegisterSupervisor)

	// Route listing is shared: drivers see their own history, supervisors
	// their location's
	app.Get("/api/routes", middleware.Verify(db, ""), routeHandler.GetRoutes)

	// Driver routes
	app.Post("/api/routes", middleware.Verify(db, middleware.RoleDriver), routeHandler.StartRoute)
	app.Get("/api/routes/open", middleware.Verify(db, middleware.RoleDriver), routeHandler.GetOpenRoute)
	app.Put("/api/routes/:id/end", middleware.Verify(db, middleware.RoleDriver), routeHandler.EndRoute)

	app.Post("/api/problems", middleware.Verify(db, middleware.RoleDriver), problemHandler.CreateProblem)

	// Supervisor routes
	vehicles := app.Group("/api/vehicles", middleware.Verify(db, middleware.RoleSupervisor))
	vehicles.Get("/", vehicleHandler.GetVehicles)
	vehicles.Post("/", vehicleHandler.CreateVehicle)
	vehicles.Get("/:id/problems", problemHandler.GetVehicleProblems)

	maintenance := app.Group("/api/maintenance", middleware.Verify(db, middleware.RoleSupervisor))
	maintenance.Get("/", maintenanceHandler.GetMaintenance)
	maintenance.Post("/", maintenanceHandler.CreateMaintenance)
	maintenance.Get("/export", maintenanceHandler.ExportMaintenance)

	app.Get("/api/alerts", middleware.Verify(db, middleware.RoleSupervisor), alertHandler.GetAlerts)
	app.Get("/api/dashboard", middleware.Verify(db, middleware.RoleSupervisor), dashboardHandler.GetDashboard)
}

func FiberConfig(db *gorm.DB) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	app.Listen(":" + port)
}
