package service

import (
	"context"
	"fmt"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FeedbackService struct {
	repo         feedback.Repository
	reports      feedback.SpamReportRepository
	appointments appointment.Repository
	users        domain.UserRepository
	audit        *AuditService
	metrics      *metrics.Collector
	log          *zap.Logger
}

func NewFeedbackService(
	repo feedback.Repository,
	reports feedback.SpamReportRepository,
	appointments appointment.Repository,
	users domain.UserRepository,
	audit *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		repo:         repo,
		reports:      reports,
		appointments: appointments,
		users:        users,
		audit:        audit,
		metrics:      m,
		log:          log,
	}
}

// Submit records a patient's rating of an appointment. One feedback per
// (patient, appointment); the unique index backs up the existence
// check so a concurrent duplicate still fails cleanly. The doctor's
// aggregate rating is folded in on success.
func (s *FeedbackService) Submit(ctx context.Context, cmd *feedback.CreateFeedbackCommand) (*feedback.Feedback, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, feedback.ErrInvalidRating
	}

	a, err := s.appointments.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != cmd.PatientID {
		return nil, ErrForbidden
	}

	exists, err := s.repo.ExistsForAppointment(ctx, cmd.PatientID, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, feedback.ErrDuplicateFeedback
	}

	f := &feedback.Feedback{
		PatientID:     cmd.PatientID,
		DoctorID:      a.DoctorID,
		AppointmentID: cmd.AppointmentID,
		Rating:        cmd.Rating,
		Comment:       cmd.Comment,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	s.applyDoctorRating(ctx, a.DoctorID, cmd.Rating)

	s.metrics.FeedbackTotal.Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: cmd.PatientID, UserRole: string(domain.RolePatient),
		Action: "create", ResourceType: "feedback", ResourceID: f.ID.String(),
	})
	return f, nil
}

// ListForDoctor hides moderated entries; the doctor-facing view only
// shows feedback that survived moderation.
func (s *FeedbackService) ListForDoctor(ctx context.Context, doctorID uuid.UUID, page, limit int) (*feedback.PagedFeedback, error) {
	paged, err := s.repo.List(ctx, &feedback.ListFeedbackQuery{
		DoctorID: &doctorID,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	s.decorateNames(ctx, paged.Feedback)
	return paged, nil
}

func (s *FeedbackService) ListForPatient(ctx context.Context, patientID uuid.UUID, page, limit int) (*feedback.PagedFeedback, error) {
	paged, err := s.repo.List(ctx, &feedback.ListFeedbackQuery{
		PatientID:        &patientID,
		IncludeModerated: true,
		Page:             page,
		Limit:            limit,
	})
	if err != nil {
		return nil, err
	}
	s.decorateNames(ctx, paged.Feedback)
	return paged, nil
}

// ListAll is the admin view: everything, moderated included.
func (s *FeedbackService) ListAll(ctx context.Context, page, limit int) (*feedback.PagedFeedback, error) {
	paged, err := s.repo.List(ctx, &feedback.ListFeedbackQuery{
		IncludeModerated: true,
		Page:             page,
		Limit:            limit,
	})
	if err != nil {
		return nil, err
	}
	s.decorateNames(ctx, paged.Feedback)
	return paged, nil
}

// Moderate flips a feedback entry's moderation flag.
func (s *FeedbackService) Moderate(ctx context.Context, id uuid.UUID, moderated bool, caller *domain.Claims) (*feedback.Feedback, error) {
	f, err := s.repo.SetModerated(ctx, id, moderated)
	if err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "feedback", ResourceID: id.String(),
		Changes: fmt.Sprintf(`{"isModerated":%t}`, moderated),
	})
	return f, nil
}

// ReportSpam files a report against another user.
func (s *FeedbackService) ReportSpam(ctx context.Context, cmd *feedback.CreateSpamReportCommand) (*feedback.SpamReport, error) {
	if cmd.ReportedBy == cmd.ReportedUser {
		return nil, feedback.ErrSelfReport
	}
	if cmd.Reason == "" {
		return nil, &ValidationError{Fields: []string{"reason is required"}}
	}
	if _, err := s.users.GetByID(ctx, cmd.ReportedUser); err != nil {
		return nil, err
	}

	report := &feedback.SpamReport{
		ReportedBy:   cmd.ReportedBy,
		ReportedUser: cmd.ReportedUser,
		Reason:       cmd.Reason,
		Status:       feedback.ReportPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: cmd.ReportedBy, UserRole: string(domain.RolePatient),
		Action: "create", ResourceType: "spam_report", ResourceID: report.ID.String(),
	})
	return report, nil
}

func (s *FeedbackService) ListReports(ctx context.Context, q *feedback.ListSpamReportsQuery) (*feedback.PagedSpamReports, error) {
	paged, err := s.reports.List(ctx, q)
	if err != nil {
		return nil, err
	}
	s.decorateReportNames(ctx, paged.Reports)
	return paged, nil
}

// ResolveReport closes a pending report with a terminal status.
func (s *FeedbackService) ResolveReport(ctx context.Context, id uuid.UUID, status feedback.ReportStatus, resolution string, caller *domain.Claims) (*feedback.SpamReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := report.Resolve(status, resolution); err != nil {
		return nil, err
	}
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "spam_report", ResourceID: id.String(),
		Changes: fmt.Sprintf(`{"status":%q}`, status),
	})
	return report, nil
}

func (s *FeedbackService) applyDoctorRating(ctx context.Context, doctorID uuid.UUID, rating int) {
	profile, err := s.users.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		s.log.Warn("skipping rating update, doctor profile lookup failed",
			zap.String("doctor_id", doctorID.String()),
			zap.Error(err),
		)
		return
	}
	profile.AddRating(rating)
	if err := s.users.UpdateDoctorProfile(ctx, profile); err != nil {
		s.log.Error("failed to update doctor rating",
			zap.String("doctor_id", doctorID.String()),
			zap.Error(err),
		)
	}
}

func (s *FeedbackService) decorateNames(ctx context.Context, items []*feedback.Feedback) {
	if len(items) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(items)*2)
	for _, f := range items {
		for _, id := range []uuid.UUID{f.PatientID, f.DoctorID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("failed to resolve feedback names", zap.Error(err))
		return
	}
	for _, f := range items {
		f.PatientName = names[f.PatientID]
		f.DoctorName = names[f.DoctorID]
	}
}

func (s *FeedbackService) decorateReportNames(ctx context.Context, reports []*feedback.SpamReport) {
	if len(reports) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(reports)*2)
	for _, r := range reports {
		for _, id := range []uuid.UUID{r.ReportedBy, r.ReportedUser} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("failed to resolve report names", zap.Error(err))
		return
	}
	for _, r := range reports {
		r.ReporterName = names[r.ReportedBy]
		r.ReportedName = names[r.ReportedUser]
	}
}
