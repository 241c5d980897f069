package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/pkg/payments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestAppointmentService(repo *mockAppointmentRepo, users *mockUserRepo, gateway *mockGateway) *AppointmentService {
	return NewAppointmentService(repo, users, gateway, newTestNotify(), newTestAudit(), testMetrics, testLogger())
}

func activeDoctor(id uuid.UUID) *domain.User {
	return &domain.User{
		ID:       id,
		Name:     "Dr Watson",
		Email:    "watson@example.com",
		Role:     domain.RoleDoctor,
		IsActive: true,
	}
}

func TestBook_CreatesScheduledPendingWithIntent(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	gateway := &mockGateway{}
	svc := newTestAppointmentService(repo, users, gateway)

	doctorID := uuid.New()
	patientID := uuid.New()

	users.On("GetByID", mock.Anything, doctorID).Return(activeDoctor(doctorID), nil)
	users.On("GetDoctorProfile", mock.Anything, doctorID).Return(&domain.DoctorProfile{
		UserID:          doctorID,
		ConsultationFee: 150,
	}, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)
	gateway.On("CreateIntent", mock.Anything, int64(15000), mock.Anything).Return(&payments.Intent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Status:       "requires_payment_method",
	}, nil)
	repo.On("SetPaymentIntent", mock.Anything, mock.Anything, "pi_123").Return(nil)

	a, intent, err := svc.Book(context.Background(), &appointment.CreateAppointmentCommand{
		DoctorID:  doctorID,
		PatientID: patientID,
		DateTime:  time.Now().Add(48 * time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, appointment.StatusScheduled, a.Status)
	assert.Equal(t, appointment.PaymentPending, a.PaymentStatus)
	assert.Equal(t, "pi_123", a.PaymentIntentID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	gateway.AssertExpectations(t)
}

func TestBook_DeletesAppointmentWhenIntentFails(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	gateway := &mockGateway{}
	svc := newTestAppointmentService(repo, users, gateway)

	doctorID := uuid.New()

	users.On("GetByID", mock.Anything, doctorID).Return(activeDoctor(doctorID), nil)
	users.On("GetDoctorProfile", mock.Anything, doctorID).Return(&domain.DoctorProfile{
		UserID:          doctorID,
		ConsultationFee: 150,
	}, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)
	gateway.On("CreateIntent", mock.Anything, int64(15000), mock.Anything).
		Return(nil, errors.New("card network down"))
	repo.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, _, err := svc.Book(context.Background(), &appointment.CreateAppointmentCommand{
		DoctorID:  doctorID,
		PatientID: uuid.New(),
		DateTime:  time.Now().Add(48 * time.Hour),
	})

	assert.Error(t, err)
	repo.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestBook_RejectsPastDate(t *testing.T) {
	svc := newTestAppointmentService(&mockAppointmentRepo{}, &mockUserRepo{}, &mockGateway{})

	_, _, err := svc.Book(context.Background(), &appointment.CreateAppointmentCommand{
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		DateTime:  time.Now().Add(-time.Hour),
	})

	assert.ErrorIs(t, err, appointment.ErrScheduledInPast)
}

func TestUpdateStatus_CompletedNotifiesPatientOnce(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	sender := &fakeSender{}
	notify := NewNotifyService(sender, testMetrics, testLogger())
	svc := NewAppointmentService(repo, users, &mockGateway{}, notify, newTestAudit(), testMetrics, testLogger())

	doctorID := uuid.New()
	patientID := uuid.New()
	a := &appointment.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Status:    appointment.StatusScheduled,
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("UpdateStatus", mock.Anything, a, appointment.StatusScheduled).Return(nil)
	users.On("GetByID", mock.Anything, patientID).Return(&domain.User{
		ID:    patientID,
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Role:  domain.RolePatient,
	}, nil)

	claims := &domain.Claims{UserID: doctorID, Role: domain.RoleDoctor}
	got, err := svc.UpdateStatus(context.Background(), a.ID, &appointment.UpdateStatusCommand{
		Status:    appointment.StatusCompleted,
		UpdatedBy: doctorID,
	}, claims)

	assert.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, got.Status)
	repo.AssertCalled(t, "UpdateStatus", mock.Anything, a, appointment.StatusScheduled)

	notify.Shutdown()
	assert.Equal(t, 1, sender.count())
}

func TestUpdateStatus_CancelledRefundsPaidBooking(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	gateway := &mockGateway{}
	svc := newTestAppointmentService(repo, users, gateway)

	doctorID := uuid.New()
	patientID := uuid.New()
	a := &appointment.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       patientID,
		Status:          appointment.StatusScheduled,
		PaymentStatus:   appointment.PaymentPaid,
		PaymentIntentID: "pi_123",
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("UpdateStatus", mock.Anything, a, appointment.StatusScheduled).Return(nil)
	gateway.On("RefundIntent", mock.Anything, "pi_123").Return(nil)
	repo.On("UpdatePaymentStatus", mock.Anything, a.ID, appointment.PaymentRefunded).Return(nil)
	users.On("GetByID", mock.Anything, patientID).Return(&domain.User{
		ID:    patientID,
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Role:  domain.RolePatient,
	}, nil)

	claims := &domain.Claims{UserID: doctorID, Role: domain.RoleDoctor}
	got, err := svc.UpdateStatus(context.Background(), a.ID, &appointment.UpdateStatusCommand{
		Status:    appointment.StatusCancelled,
		UpdatedBy: doctorID,
	}, claims)

	assert.NoError(t, err)
	assert.Equal(t, appointment.PaymentRefunded, got.PaymentStatus)
	gateway.AssertExpectations(t)
	repo.AssertCalled(t, "UpdatePaymentStatus", mock.Anything, a.ID, appointment.PaymentRefunded)
}

func TestUpdateStatus_InvalidTransitionRejected(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	svc := newTestAppointmentService(repo, users, &mockGateway{})

	doctorID := uuid.New()
	a := &appointment.Appointment{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Status:   appointment.StatusCompleted,
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)

	claims := &domain.Claims{UserID: doctorID, Role: domain.RoleDoctor}
	_, err := svc.UpdateStatus(context.Background(), a.ID, &appointment.UpdateStatusCommand{
		Status:    appointment.StatusCancelled,
		UpdatedBy: doctorID,
	}, claims)

	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_DoctorCannotTouchOthersAppointment(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newTestAppointmentService(repo, &mockUserRepo{}, &mockGateway{})

	a := &appointment.Appointment{
		ID:       uuid.New(),
		DoctorID: uuid.New(),
		Status:   appointment.StatusScheduled,
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)

	claims := &domain.Claims{UserID: uuid.New(), Role: domain.RoleDoctor}
	_, err := svc.UpdateStatus(context.Background(), a.ID, &appointment.UpdateStatusCommand{
		Status: appointment.StatusCompleted,
	}, claims)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatus_ConditionalWriteConflictSurfaces(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	svc := newTestAppointmentService(repo, users, &mockGateway{})

	doctorID := uuid.New()
	a := &appointment.Appointment{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Status:   appointment.StatusScheduled,
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, appointment.StatusScheduled).
		Return(appointment.ErrStatusConflict)

	claims := &domain.Claims{UserID: doctorID, Role: domain.RoleDoctor}
	_, err := svc.UpdateStatus(context.Background(), a.ID, &appointment.UpdateStatusCommand{
		Status:    appointment.StatusCompleted,
		UpdatedBy: doctorID,
	}, claims)

	assert.ErrorIs(t, err, appointment.ErrStatusConflict)
}

func TestConfirmPayment_VerifiesWithProvider(t *testing.T) {
	repo := &mockAppointmentRepo{}
	gateway := &mockGateway{}
	svc := newTestAppointmentService(repo, &mockUserRepo{}, gateway)

	patientID := uuid.New()
	a := &appointment.Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		Status:          appointment.StatusScheduled,
		PaymentStatus:   appointment.PaymentPending,
		PaymentIntentID: "pi_123",
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	gateway.On("RetrieveIntent", mock.Anything, "pi_123").Return(&payments.Intent{
		ID:     "pi_123",
		Status: "succeeded",
	}, nil)
	repo.On("UpdatePaymentStatus", mock.Anything, a.ID, appointment.PaymentPaid).Return(nil)

	got, err := svc.ConfirmPayment(context.Background(), a.ID, patientID)

	assert.NoError(t, err)
	assert.Equal(t, appointment.PaymentPaid, got.PaymentStatus)
}

func TestConfirmPayment_UnpaidIntentRejected(t *testing.T) {
	repo := &mockAppointmentRepo{}
	gateway := &mockGateway{}
	svc := newTestAppointmentService(repo, &mockUserRepo{}, gateway)

	patientID := uuid.New()
	a := &appointment.Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		PaymentStatus:   appointment.PaymentPending,
		PaymentIntentID: "pi_123",
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	gateway.On("RetrieveIntent", mock.Anything, "pi_123").Return(&payments.Intent{
		ID:     "pi_123",
		Status: "requires_payment_method",
	}, nil)

	_, err := svc.ConfirmPayment(context.Background(), a.ID, patientID)

	assert.ErrorIs(t, err, appointment.ErrPaymentNotConfirmed)
	repo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_OtherPatientForbidden(t *testing.T) {
	repo := &mockAppointmentRepo{}
	svc := newTestAppointmentService(repo, &mockUserRepo{}, &mockGateway{})

	a := &appointment.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		PaymentIntentID: "pi_123",
	}
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)

	_, err := svc.ConfirmPayment(context.Background(), a.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestList_PatientScopedToOwnAppointments(t *testing.T) {
	repo := &mockAppointmentRepo{}
	users := &mockUserRepo{}
	svc := newTestAppointmentService(repo, users, &mockGateway{})

	patientID := uuid.New()
	repo.On("List", mock.Anything, mock.MatchedBy(func(q *appointment.ListAppointmentsQuery) bool {
		return q.PatientID != nil && *q.PatientID == patientID
	})).Return(&appointment.PagedAppointments{CurrentPage: 1}, nil)

	claims := &domain.Claims{UserID: patientID, Role: domain.RolePatient}
	_, err := svc.List(context.Background(), &appointment.ListAppointmentsQuery{}, claims)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
