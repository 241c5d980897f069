package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNotOwner             = errors.New("prescription belongs to another doctor")
	ErrNoMedications        = errors.New("prescription requires at least one medication")
)
