package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one entry of a prescription's structured medication list.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctorId"`
	PatientID     uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patientId"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index" json:"appointmentId"`

	Medications  []Medication `gorm:"column:medications;serializer:json" json:"medications"`
	Instructions string       `gorm:"column:instructions;type:text" json:"instructions,omitempty"`
	ImageURL     string       `gorm:"column:image_url;type:text" json:"imageUrl,omitempty"`
	IssuedDate   time.Time    `gorm:"column:issued_date;not null;index" json:"issuedDate"`

	// CreatedBy distinguishes doctor-issued from staff-uploaded records;
	// mutation rights are scoped to the creating doctor, staff override all.
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"-"`

	DoctorName string `gorm:"-" json:"doctorName,omitempty"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}

// OwnedBy reports whether the given doctor issued this prescription.
func (p *Prescription) OwnedBy(doctorID uuid.UUID) bool {
	return p.DoctorID == doctorID
}

// ActiveWindow is how long a prescription counts as active after its
// issue date. The patient dashboard's active-prescription count uses
// the same cutoff.
const ActiveWindow = 30 * 24 * time.Hour

func (p *Prescription) ActiveAt(now time.Time) bool {
	return now.Sub(p.IssuedDate) < ActiveWindow
}

type CreatePrescriptionCommand struct {
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	Medications   []Medication
	Instructions  string
	ImageURL      string
	IssuedDate    time.Time
	CreatedBy     uuid.UUID
}

type UpdatePrescriptionCommand struct {
	Medications  *[]Medication
	Instructions *string
	ImageURL     *string
	UpdatedBy    uuid.UUID
}

type ListPrescriptionsQuery struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Page      int
	Limit     int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	Total         int64
	CurrentPage   int
	TotalPages    int
}
