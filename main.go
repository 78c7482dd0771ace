package main

import (
	"log"

	"Motorpool/CronJobs"
	"Motorpool/FiberConfig"
	"Motorpool/Models"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	db, err := Models.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	registrationChecker := CronJobs.NewRegistrationChecker(db, 30, false)
	if err := registrationChecker.Start(); err != nil {
		log.Printf("Failed to start registration checker: %v\n", err)
	}
	defer registrationChecker.Stop()

	FiberConfig.FiberConfig(db)
}
