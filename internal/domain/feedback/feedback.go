package feedback

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID     uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index;uniqueIndex:idx_feedback_patient_appointment" json:"patientId"`
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctorId"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex:idx_feedback_patient_appointment" json:"appointmentId"`

	Rating  int    `gorm:"column:rating;not null" json:"rating"`
	Comment string `gorm:"column:comment;type:text" json:"comment,omitempty"`

	// Set by admin moderation; moderated feedback is hidden from
	// doctor-facing listings.
	IsModerated bool `gorm:"column:is_moderated;default:false;index" json:"isModerated"`

	PatientName string `gorm:"-" json:"patientName,omitempty"`
	DoctorName  string `gorm:"-" json:"doctorName,omitempty"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "Pending"
	ReportResolved  ReportStatus = "Resolved"
	ReportDismissed ReportStatus = "Dismissed"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportPending, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// SpamReport records one user reporting another. Reports raised against a
// feedback item are stored against the feedback's author.
type SpamReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	ReportedBy   uuid.UUID `gorm:"column:reported_by;type:uuid;not null;index" json:"reportedBy"`
	ReportedUser uuid.UUID `gorm:"column:reported_user;type:uuid;not null;index" json:"reportedUser"`

	Reason     string       `gorm:"column:reason;type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"column:status;type:varchar(20);not null;default:'Pending';index" json:"status"`
	Resolution string       `gorm:"column:resolution;type:text" json:"resolution,omitempty"`

	ReporterName string `gorm:"-" json:"reporterName,omitempty"`
	ReportedName string `gorm:"-" json:"reportedName,omitempty"`
}

func (SpamReport) TableName() string {
	return "spam_reports"
}

// Resolve closes the report with a terminal status and free-text outcome.
func (r *SpamReport) Resolve(status ReportStatus, resolution string) error {
	if !status.IsValid() || status == ReportPending {
		return ErrInvalidReportStatus
	}
	if r.Status != ReportPending {
		return ErrReportAlreadyResolved
	}
	r.Status = status
	r.Resolution = resolution
	return nil
}

type CreateFeedbackCommand struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID uuid.UUID
	Rating        int
	Comment       string
}

type CreateSpamReportCommand struct {
	ReportedBy   uuid.UUID
	ReportedUser uuid.UUID
	Reason       string
}

type ListFeedbackQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	// IncludeModerated is false for doctor-facing listings.
	IncludeModerated bool
	Page             int
	Limit            int
}

type PagedFeedback struct {
	Feedback    []*Feedback
	Total       int64
	CurrentPage int
	TotalPages  int
}

type ListSpamReportsQuery struct {
	Status *ReportStatus
	Page   int
	Limit  int
}

type PagedSpamReports struct {
	Reports     []*SpamReport
	Total       int64
	CurrentPage int
	TotalPages  int
}
