package booking

import "fmt"

// ValidationError reports a draft that cannot be committed as submitted
// (missing start time, empty selection, invalid duration). The commit is
// never attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// UnavailableEquipmentError reports an equipment item whose status gate
// (maintenance/retired) forbids booking it at any quantity.
type UnavailableEquipmentError struct {
	EquipmentID int64
	Name        string
}

func (e *UnavailableEquipmentError) Error() string {
	return fmt.Sprintf("equipment %q is not available for booking", e.Name)
}

// InsufficientAvailabilityError reports a requested quantity exceeding the
// remaining capacity of an equipment item over the booking window. The draft
// is preserved so the user can reduce quantity or shift the window.
type InsufficientAvailabilityError struct {
	EquipmentID int64
	Name        string
	Available   int
	Requested   int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("equipment %q: only %d available, %d requested", e.Name, e.Available, e.Requested)
}

// SchemaMismatchError translates a backend "missing column" failure into an
// actionable operator-facing message instead of a raw driver error.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("backend schema is missing column %q; run the pending database migration before creating bookings", e.Column)
}

// CustomerDecisionRequiredError is not a failure: it is a deliberate pause in
// the commit flow. The supplied phone number matched no registry entry, so
// the caller must answer whether to create the customer before the commit
// resumes. Either answer lets the commit proceed.
type CustomerDecisionRequiredError struct {
	CustomerName  string
	CustomerPhone string
}

func (e *CustomerDecisionRequiredError) Error() string {
	return fmt.Sprintf("customer %q (%s) is not in the registry; a decision is required to continue", e.CustomerName, e.CustomerPhone)
}
