package appointment

import (
	"time"

	"github.com/google/uuid"
)

// State transitions:
//
//	Scheduled   → Completed | Cancelled | Rescheduled
//	Rescheduled → Scheduled (staff assigns a new slot)
//
// Completed and Cancelled are terminal. Everything else is rejected
// with ErrInvalidStatusTransition.
type Status string

const (
	StatusScheduled   Status = "Scheduled"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
	StatusRescheduled Status = "Rescheduled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// PaymentStatus is an independent axis from Status: nothing couples a
// Completed appointment to a Paid one.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	// Doctor and patient are fixed at creation; an appointment always
	// denotes exactly one doctor-patient pair.
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctorId"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patientId"`

	DateTime time.Time `gorm:"column:date_time;not null;index" json:"dateTime"`
	Status   Status    `gorm:"column:status;type:varchar(20);not null;default:'Scheduled';index" json:"status"`
	Notes    string    `gorm:"column:notes;type:text" json:"notes,omitempty"`

	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'Pending';index" json:"paymentStatus"`
	// Handle of the payment collaborator's intent, persisted so a later
	// confirmation can be verified server-side.
	PaymentIntentID string `gorm:"column:payment_intent_id;type:varchar(255)" json:"-"`

	DoctorName  string `gorm:"-" json:"doctorName,omitempty"`
	PatientName string `gorm:"-" json:"patientName,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusScheduled:   {StatusCompleted, StatusCancelled, StatusRescheduled},
		StatusRescheduled: {StatusScheduled},
		StatusCompleted:   {},
		StatusCancelled:   {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Transition moves the appointment to newStatus, rejecting any pair
// outside the transition table.
func (a *Appointment) Transition(newStatus Status) error {
	if !newStatus.IsValid() {
		return ErrInvalidStatus
	}
	if !a.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}
	a.Status = newStatus
	return nil
}

// MarkPaid records a verified payment confirmation.
func (a *Appointment) MarkPaid() error {
	if a.PaymentStatus == PaymentRefunded {
		return ErrPaymentAlreadyRefunded
	}
	a.PaymentStatus = PaymentPaid
	return nil
}

type CreateAppointmentCommand struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	DateTime  time.Time
	Notes     string
}

type UpdateStatusCommand struct {
	Status Status
	// NewDateTime is required for Rescheduled → Scheduled re-slotting.
	NewDateTime *time.Time
	UpdatedBy   uuid.UUID
}

type ListAppointmentsQuery struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
	Page      int
	Limit     int
}

type PagedAppointments struct {
	Appointments []*Appointment
	Total        int64
	CurrentPage  int
	TotalPages   int
}
