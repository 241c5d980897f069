package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status change with a conditional write:
	// the row is only updated if its stored status still equals
	// expectedStatus. Returns ErrStatusConflict on a lost race.
	UpdateStatus(ctx context.Context, a *Appointment, expectedStatus Status) error

	// UpdatePaymentStatus records the payment axis independently of status.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error

	// SetPaymentIntent stores the payment collaborator's intent handle
	// once it has been created for a booking.
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error

	// Delete removes an appointment. Used only as the compensating action
	// when payment-intent creation fails after the booking write.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetUpcoming returns scheduled appointments starting in the
	// half-open interval (from, to], used by the reminder job.
	GetUpcoming(ctx context.Context, from, to time.Time) ([]*Appointment, error)

	CountByPatient(ctx context.Context, patientID uuid.UUID, onlyFuture bool) (int64, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID, status *Status) (int64, error)
}
