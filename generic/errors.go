/*
errors.go - Centralized error types for the follow-up engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores and the service wrap these with context; the API maps them to
  HTTP status codes through the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Lookup errors - missing clients/tasks
  2. Validation errors - malformed dates, settings, statuses
  3. Store errors - duplicate task keys

NOTE:
  The lead parser and the cadence planner never return errors. Only the
  stateful layers (service, stores) do.

SEE ALSO:
  - store.go: Interfaces returning these errors
  - followup/service.go: Wraps these errors with operation context
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrTaskNotFound is returned when a referenced task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateTask is returned when a task with the same
	// (clientId, date, type, title, source) already exists.
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrInvalidDate is returned for dates not in "YYYY-MM-DD" form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidSettings is returned for malformed calendar settings.
	ErrInvalidSettings = errors.New("invalid calendar settings")

	// ErrInvalidStatus is returned for unknown client or task statuses.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTask is returned when a task fails validation (type, source, date).
	ErrInvalidTask = errors.New("invalid task")

	// ErrNoLeads is returned when an import finds nothing to create.
	ErrNoLeads = errors.New("no leads detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateTaskError names the key that collided.
type DuplicateTaskError struct {
	Key TaskKey
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("duplicate task: client=%s date=%s type=%s title=%q source=%s",
		e.Key.ClientID, e.Key.Date, e.Key.Type, e.Key.Title, e.Key.Source)
}

func (e *DuplicateTaskError) Unwrap() error {
	return ErrDuplicateTask
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTask) ||
		errors.Is(err, ErrNoLeads)
}

// IsConflict returns true if the error is a duplicate write.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateTask)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}
