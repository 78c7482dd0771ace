package RouteLifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrActiveRouteExists rejects a route start while the driver still has an
	// open route. Recoverable: end the current route first.
	ErrActiveRouteExists = errors.New("driver already has an active route")

	// ErrRouteNotFound means the route id does not resolve to an open route.
	ErrRouteNotFound = errors.New("route not found or already completed")

	// ErrOdometerRegression means the end reading is below the start reading.
	ErrOdometerRegression = errors.New("end odometer is lower than start odometer")
)

// ValidationError rejects a request before any write occurs. Fields lists
// every failing field, not just the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// PersistenceError wraps a storage failure of a single logical operation.
// The operation was retried once if the failure looked transient.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func isDomainError(err error) bool {
	var validation *ValidationError
	return errors.Is(err, ErrActiveRouteExists) ||
		errors.Is(err, ErrRouteNotFound) ||
		errors.Is(err, ErrOdometerRegression) ||
		errors.As(err, &validation)
}

// isTransient matches serialization conflicts and lock contention worth one
// retry. Anything else fails the operation outright.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "try restarting transaction")
}
