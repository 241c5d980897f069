package service

import (
	"context"
	"sync"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/pkg/googleauth"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/findadoctor/api/pkg/payments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the whole package shares one.
var testMetrics = metrics.NewCollector("servicetest")

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) CreateDoctorProfile(ctx context.Context, p *domain.DoctorProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) CreatePatientProfile(ctx context.Context, p *domain.PatientProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) CreateStaffProfile(ctx context.Context, p *domain.StaffProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*domain.DoctorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DoctorProfile), args.Error(1)
}

func (m *mockUserRepo) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*domain.PatientProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatientProfile), args.Error(1)
}

func (m *mockUserRepo) GetStaffProfile(ctx context.Context, userID uuid.UUID) (*domain.StaffProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffProfile), args.Error(1)
}

func (m *mockUserRepo) UpdateDoctorProfile(ctx context.Context, p *domain.DoctorProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePatientProfile(ctx context.Context, p *domain.PatientProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateStaffProfile(ctx context.Context, p *domain.StaffProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedUsers), args.Error(1)
}

func (m *mockUserRepo) SearchDoctors(ctx context.Context, q *domain.SearchDoctorsQuery) (*domain.PagedDoctors, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedDoctors), args.Error(1)
}

func (m *mockUserRepo) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role *domain.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.PagedAppointments), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, a *appointment.Appointment, expected appointment.Status) error {
	args := m.Called(ctx, a, expected)
	return args.Error(0)
}

func (m *mockAppointmentRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status appointment.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockAppointmentRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	args := m.Called(ctx, id, intentID)
	return args.Error(0)
}

func (m *mockAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAppointmentRepo) GetUpcoming(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*appointment.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) CountByPatient(ctx context.Context, patientID uuid.UUID, onlyFuture bool) (int64, error) {
	args := m.Called(ctx, patientID, onlyFuture)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAppointmentRepo) CountByDoctor(ctx context.Context, doctorID uuid.UUID, status *appointment.Status) (int64, error) {
	args := m.Called(ctx, doctorID, status)
	return args.Get(0).(int64), args.Error(1)
}

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Create(ctx context.Context, f *feedback.Feedback) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockFeedbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*feedback.Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) List(ctx context.Context, q *feedback.ListFeedbackQuery) (*feedback.PagedFeedback, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.PagedFeedback), args.Error(1)
}

func (m *mockFeedbackRepo) SetModerated(ctx context.Context, id uuid.UUID, moderated bool) (*feedback.Feedback, error) {
	args := m.Called(ctx, id, moderated)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) ExistsForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, patientID, appointmentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFeedbackRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockSpamReportRepo struct {
	mock.Mock
}

func (m *mockSpamReportRepo) Create(ctx context.Context, r *feedback.SpamReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockSpamReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*feedback.SpamReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.SpamReport), args.Error(1)
}

func (m *mockSpamReportRepo) List(ctx context.Context, q *feedback.ListSpamReportsQuery) (*feedback.PagedSpamReports, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedback.PagedSpamReports), args.Error(1)
}

func (m *mockSpamReportRepo) Update(ctx context.Context, r *feedback.SpamReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockSpamReportRepo) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*payments.Intent, error) {
	args := m.Called(ctx, amountCents, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *mockGateway) RetrieveIntent(ctx context.Context, id string) (*payments.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *mockGateway) RefundIntent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*googleauth.Identity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*googleauth.Identity), args.Error(1)
}

// fakeSender records sends without SMTP; safe for the async worker.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeAuditRepo swallows audit writes from the async worker.
type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	return nil
}

func newTestAudit() *AuditService {
	return NewAuditService(fakeAuditRepo{}, testMetrics, testLogger())
}

func newTestNotify() *NotifyService {
	return NewNotifyService(&fakeSender{}, testMetrics, testLogger())
}
