package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrScheduledInPast         = errors.New("cannot book an appointment in the past")
	ErrStatusConflict          = errors.New("appointment status changed concurrently")
	ErrPaymentAlreadyRefunded  = errors.New("payment has already been refunded")
	ErrPaymentNotConfirmed     = errors.New("payment has not been confirmed by the payment provider")
)
