package feedback

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	GetByID(ctx context.Context, id uuid.UUID) (*Feedback, error)
	List(ctx context.Context, q *ListFeedbackQuery) (*PagedFeedback, error)
	SetModerated(ctx context.Context, id uuid.UUID, moderated bool) (*Feedback, error)

	// ExistsForAppointment backs the one-feedback-per-appointment rule.
	ExistsForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (bool, error)

	Count(ctx context.Context) (int64, error)
}

type SpamReportRepository interface {
	Create(ctx context.Context, r *SpamReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*SpamReport, error)
	List(ctx context.Context, q *ListSpamReportsQuery) (*PagedSpamReports, error)
	Update(ctx context.Context, r *SpamReport) error
	CountPending(ctx context.Context) (int64, error)
}
