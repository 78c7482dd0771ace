package Models

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database, runs migrations and returns the handle. The
// handle is injected into every handler; there is no package-level connection.
func Connect() (*gorm.DB, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	var (
		db  *gorm.DB
		err error
	)
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open("motorpool.db"), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the schema migrations in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base tables with no foreign references
	if err := db.AutoMigrate(
		&Driver{},
		&Supervisor{},
		&Vehicle{},
	); err != nil {
		return err
	}

	// 2. Tables referencing drivers and vehicles
	return db.AutoMigrate(
		&Route{},
		&OdometerReading{},
		&ProblemReport{},
		&MaintenanceRecord{},
	)
}
