package service

import (
	"context"
	"testing"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestFeedbackService(repo *mockFeedbackRepo, reports *mockSpamReportRepo, appointments *mockAppointmentRepo, users *mockUserRepo) *FeedbackService {
	return NewFeedbackService(repo, reports, appointments, users, newTestAudit(), testMetrics, testLogger())
}

func TestSubmit_FoldsRatingIntoDoctorAggregate(t *testing.T) {
	repo := &mockFeedbackRepo{}
	appointments := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	svc := newTestFeedbackService(repo, &mockSpamReportRepo{}, appointments, users)

	patientID := uuid.New()
	doctorID := uuid.New()
	appointmentID := uuid.New()

	appointments.On("GetByID", mock.Anything, appointmentID).Return(&appointment.Appointment{
		ID:        appointmentID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    appointment.StatusCompleted,
	}, nil)
	repo.On("ExistsForAppointment", mock.Anything, patientID, appointmentID).Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*feedback.Feedback")).Return(nil)

	profile := &domain.DoctorProfile{UserID: doctorID, RatingSum: 8, TotalRatings: 2}
	users.On("GetDoctorProfile", mock.Anything, doctorID).Return(profile, nil)
	users.On("UpdateDoctorProfile", mock.Anything, profile).Return(nil)

	f, err := svc.Submit(context.Background(), &feedback.CreateFeedbackCommand{
		PatientID:     patientID,
		AppointmentID: appointmentID,
		Rating:        5,
		Comment:       "thorough and kind",
	})

	assert.NoError(t, err)
	assert.Equal(t, doctorID, f.DoctorID)
	assert.Equal(t, int64(13), profile.RatingSum)
	assert.Equal(t, int64(3), profile.TotalRatings)
	users.AssertExpectations(t)
}

func TestSubmit_RatingOutOfRange(t *testing.T) {
	svc := newTestFeedbackService(&mockFeedbackRepo{}, &mockSpamReportRepo{}, &mockAppointmentRepo{}, &mockUserRepo{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(context.Background(), &feedback.CreateFeedbackCommand{
			PatientID:     uuid.New(),
			AppointmentID: uuid.New(),
			Rating:        rating,
		})
		assert.ErrorIs(t, err, feedback.ErrInvalidRating)
	}
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	repo := &mockFeedbackRepo{}
	appointments := &mockAppointmentRepo{}
	svc := newTestFeedbackService(repo, &mockSpamReportRepo{}, appointments, &mockUserRepo{})

	patientID := uuid.New()
	appointmentID := uuid.New()

	appointments.On("GetByID", mock.Anything, appointmentID).Return(&appointment.Appointment{
		ID:        appointmentID,
		PatientID: patientID,
		DoctorID:  uuid.New(),
	}, nil)
	repo.On("ExistsForAppointment", mock.Anything, patientID, appointmentID).Return(true, nil)

	_, err := svc.Submit(context.Background(), &feedback.CreateFeedbackCommand{
		PatientID:     patientID,
		AppointmentID: appointmentID,
		Rating:        4,
	})

	assert.ErrorIs(t, err, feedback.ErrDuplicateFeedback)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_OtherPatientsAppointmentForbidden(t *testing.T) {
	appointments := &mockAppointmentRepo{}
	svc := newTestFeedbackService(&mockFeedbackRepo{}, &mockSpamReportRepo{}, appointments, &mockUserRepo{})

	appointmentID := uuid.New()
	appointments.On("GetByID", mock.Anything, appointmentID).Return(&appointment.Appointment{
		ID:        appointmentID,
		PatientID: uuid.New(),
	}, nil)

	_, err := svc.Submit(context.Background(), &feedback.CreateFeedbackCommand{
		PatientID:     uuid.New(),
		AppointmentID: appointmentID,
		Rating:        4,
	})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListForDoctor_ExcludesModerated(t *testing.T) {
	repo := &mockFeedbackRepo{}
	svc := newTestFeedbackService(repo, &mockSpamReportRepo{}, &mockAppointmentRepo{}, &mockUserRepo{})

	doctorID := uuid.New()
	repo.On("List", mock.Anything, mock.MatchedBy(func(q *feedback.ListFeedbackQuery) bool {
		return q.DoctorID != nil && *q.DoctorID == doctorID && !q.IncludeModerated
	})).Return(&feedback.PagedFeedback{CurrentPage: 1}, nil)

	_, err := svc.ListForDoctor(context.Background(), doctorID, 1, 10)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReportSpam_SelfReportRejected(t *testing.T) {
	svc := newTestFeedbackService(&mockFeedbackRepo{}, &mockSpamReportRepo{}, &mockAppointmentRepo{}, &mockUserRepo{})

	self := uuid.New()
	_, err := svc.ReportSpam(context.Background(), &feedback.CreateSpamReportCommand{
		ReportedBy:   self,
		ReportedUser: self,
		Reason:       "spam",
	})

	assert.ErrorIs(t, err, feedback.ErrSelfReport)
}

func TestReportSpam_ReasonRequired(t *testing.T) {
	svc := newTestFeedbackService(&mockFeedbackRepo{}, &mockSpamReportRepo{}, &mockAppointmentRepo{}, &mockUserRepo{})

	_, err := svc.ReportSpam(context.Background(), &feedback.CreateSpamReportCommand{
		ReportedBy:   uuid.New(),
		ReportedUser: uuid.New(),
	})

	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestResolveReport_TerminalStatusOnly(t *testing.T) {
	reports := &mockSpamReportRepo{}
	svc := newTestFeedbackService(&mockFeedbackRepo{}, reports, &mockAppointmentRepo{}, &mockUserRepo{})

	report := &feedback.SpamReport{
		ID:     uuid.New(),
		Status: feedback.ReportPending,
	}
	reports.On("GetByID", mock.Anything, report.ID).Return(report, nil)

	claims := &domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := svc.ResolveReport(context.Background(), report.ID, feedback.ReportPending, "", claims)

	assert.ErrorIs(t, err, feedback.ErrInvalidReportStatus)
	reports.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestResolveReport_SecondResolutionRejected(t *testing.T) {
	reports := &mockSpamReportRepo{}
	svc := newTestFeedbackService(&mockFeedbackRepo{}, reports, &mockAppointmentRepo{}, &mockUserRepo{})

	report := &feedback.SpamReport{
		ID:     uuid.New(),
		Status: feedback.ReportResolved,
	}
	reports.On("GetByID", mock.Anything, report.ID).Return(report, nil)

	claims := &domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := svc.ResolveReport(context.Background(), report.ID, feedback.ReportDismissed, "no action", claims)

	assert.ErrorIs(t, err, feedback.ErrReportAlreadyResolved)
}
