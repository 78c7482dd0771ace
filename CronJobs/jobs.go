package CronJobs

import (
	"fmt"
	"log"
	"time"

	"Motorpool/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// RegistrationChecker represents a scheduled registration expiry check service
type RegistrationChecker struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	warningDays    int
	runImmediately bool
	jobID          cron.EntryID
}

// NewRegistrationChecker creates a new registration checker with the given configuration
func NewRegistrationChecker(db *gorm.DB, warningDays int, runImmediately bool) *RegistrationChecker {
	return &RegistrationChecker{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		warningDays:    warningDays,
		runImmediately: runImmediately,
	}
}

// Start initiates the registration checker cron job
func (r *RegistrationChecker) Start() error {
	// Add the scheduled task
	var err error
	r.jobID, err = r.cronScheduler.AddFunc("0 0 1 * * *", func() {
		log.Println("Running scheduled daily registration expiry check")
		r.runCheck()
	})

	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	// Start the scheduler
	r.cronScheduler.Start()
	fmt.Println("Registration expiry scheduler started - will run daily at 1:00 AM")

	// Run immediately if requested
	if r.runImmediately {
		fmt.Println("Running initial registration expiry check")
		r.runCheck()
	}

	return nil
}

// Stop terminates the registration checker
func (r *RegistrationChecker) Stop() {
	if r.cronScheduler != nil {
		r.cronScheduler.Stop()
		log.Println("Registration expiry scheduler stopped")
	}
}

// UpdateSchedule changes the schedule of the registration checker
// Format: "0 0 1 * * *" = At 01:00:00 AM every day
func (r *RegistrationChecker) UpdateSchedule(schedule string) error {
	// Remove existing job
	r.cronScheduler.Remove(r.jobID)

	// Add with new schedule
	var err error
	r.jobID, err = r.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled registration expiry check")
		r.runCheck()
	})

	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	log.Printf("Registration expiry schedule updated to: %s\n", schedule)
	return nil
}

// RunManualCheck executes a manual registration expiry check
func (r *RegistrationChecker) RunManualCheck() {
	log.Println("Running manual registration expiry check")
	r.runCheck()
}

// runCheck logs every vehicle whose registration expires within the
// configured warning window
func (r *RegistrationChecker) runCheck() {
	cutoff := time.Now().AddDate(0, 0, r.warningDays)

	var vehicles []Models.Vehicle
	err := r.db.Where("registration_expiration <= ?", cutoff).
		Order("registration_expiration ASC").
		Find(&vehicles).Error
	if err != nil {
		log.Printf("Error in registration expiry check: %v\n", err)
		return
	}

	if len(vehicles) == 0 {
		log.Println("No registrations expiring soon")
		return
	}

	for _, vehicle := range vehicles {
		expiry := time.Time(vehicle.RegistrationExpiration)
		log.Printf("Registration expiring soon: %s (%s) on %s\n",
			vehicle.PlateNumber, vehicle.Location, expiry.Format("2006-01-02"))
	}
	log.Printf("Registration expiry check found %d vehicle(s) expiring within %d days\n",
		len(vehicles), r.warningDays)
}
