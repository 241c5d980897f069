package service

import (
	"context"
	"fmt"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/findadoctor/api/pkg/payments"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService struct {
	repo     appointment.Repository
	users    domain.UserRepository
	payments payments.Gateway
	notify   *NotifyService
	audit    *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	users domain.UserRepository,
	gateway payments.Gateway,
	notify *NotifyService,
	audit *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:     repo,
		users:    users,
		payments: gateway,
		notify:   notify,
		audit:    audit,
		metrics:  m,
		log:      log,
	}
}

// Book persists a Scheduled/Pending appointment and opens a payment
// intent for the doctor's consultation fee. If the payment collaborator
// rejects the intent, the freshly written appointment is deleted so no
// unpayable booking is left behind.
func (s *AppointmentService) Book(ctx context.Context, cmd *appointment.CreateAppointmentCommand) (*appointment.Appointment, *payments.Intent, error) {
	if !cmd.DateTime.After(time.Now()) {
		return nil, nil, appointment.ErrScheduledInPast
	}

	doctor, err := s.users.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, nil, err
	}
	if doctor.Role != domain.RoleDoctor || !doctor.IsActive || doctor.IsBanned {
		return nil, nil, domain.ErrUserNotFound
	}
	profile, err := s.users.GetDoctorProfile(ctx, cmd.DoctorID)
	if err != nil {
		return nil, nil, err
	}

	a := &appointment.Appointment{
		DoctorID:      cmd.DoctorID,
		PatientID:     cmd.PatientID,
		DateTime:      cmd.DateTime,
		Status:        appointment.StatusScheduled,
		Notes:         cmd.Notes,
		PaymentStatus: appointment.PaymentPending,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, nil, fmt.Errorf("creating appointment: %w", err)
	}

	intent, err := s.payments.CreateIntent(ctx, profile.ConsultationFee*100, map[string]string{
		"appointment_id": a.ID.String(),
		"patient_id":     cmd.PatientID.String(),
	})
	if err != nil {
		// Compensating action: the booking must not outlive a failed
		// intent creation.
		if delErr := s.repo.Delete(ctx, a.ID); delErr != nil {
			s.log.Error("failed to roll back appointment after payment error",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(delErr),
			)
		}
		s.metrics.PaymentsTotal.WithLabelValues("intent_failed").Inc()
		return nil, nil, fmt.Errorf("creating payment intent: %w", err)
	}

	a.PaymentIntentID = intent.ID
	if err := s.repo.SetPaymentIntent(ctx, a.ID, intent.ID); err != nil {
		s.log.Error("failed to store payment intent handle",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusScheduled)).Inc()
	s.metrics.PaymentsTotal.WithLabelValues("intent_created").Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: cmd.PatientID, UserRole: string(domain.RolePatient),
		Action: "create", ResourceType: "appointment", ResourceID: a.ID.String(),
	})

	a.DoctorName = doctor.Name
	return a, intent, nil
}

// ConfirmPayment marks an appointment paid after verifying with the
// payment provider that its intent actually succeeded. The client's
// word alone is never trusted.
func (s *AppointmentService) ConfirmPayment(ctx context.Context, id, patientID uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrForbidden
	}
	if a.PaymentIntentID == "" {
		return nil, appointment.ErrPaymentNotConfirmed
	}

	intent, err := s.payments.RetrieveIntent(ctx, a.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("verifying payment: %w", err)
	}
	if !intent.Succeeded() {
		s.metrics.PaymentsTotal.WithLabelValues("unconfirmed").Inc()
		return nil, appointment.ErrPaymentNotConfirmed
	}

	if err := a.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, a.ID, a.PaymentStatus); err != nil {
		return nil, err
	}

	s.metrics.PaymentsTotal.WithLabelValues("paid").Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: patientID, UserRole: string(domain.RolePatient),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(),
		Changes: `{"paymentStatus":"Paid"}`,
	})
	return a, nil
}

// UpdateStatus applies one transition from the status table. The write
// is conditional on the status the transition was computed from, so a
// concurrent update surfaces as ErrStatusConflict instead of silently
// winning. Exactly one patient notification is sent per successful
// transition.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateStatusCommand, caller *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleDoctor && a.DoctorID != caller.UserID {
		return nil, ErrForbidden
	}

	expected := a.Status
	if err := a.Transition(cmd.Status); err != nil {
		return nil, err
	}

	// Re-slotting out of Rescheduled needs the new time.
	if expected == appointment.StatusRescheduled && cmd.Status == appointment.StatusScheduled {
		if cmd.NewDateTime == nil {
			return nil, &ValidationError{Fields: []string{"newDateTime is required when rescheduling"}}
		}
		if !cmd.NewDateTime.After(time.Now()) {
			return nil, appointment.ErrScheduledInPast
		}
		a.DateTime = *cmd.NewDateTime
	}

	if err := s.repo.UpdateStatus(ctx, a, expected); err != nil {
		return nil, err
	}

	if cmd.Status == appointment.StatusCancelled {
		s.refundIfPaid(ctx, a)
	}

	s.notifyPatient(ctx, a)

	s.metrics.AppointmentsTotal.WithLabelValues(string(cmd.Status)).Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: cmd.UpdatedBy, UserRole: string(caller.Role),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(),
		Changes: fmt.Sprintf(`{"status":%q}`, cmd.Status),
	})
	return a, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RolePatient:
		if a.PatientID != caller.UserID {
			return nil, ErrForbidden
		}
	case domain.RoleDoctor:
		if a.DoctorID != caller.UserID {
			return nil, ErrForbidden
		}
	}

	s.decorateNames(ctx, []*appointment.Appointment{a})
	return a, nil
}

// List scopes the query to the caller: patients see their own bookings,
// doctors their own schedule. Staff and admins pass filters through.
func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, caller *domain.Claims) (*appointment.PagedAppointments, error) {
	switch caller.Role {
	case domain.RolePatient:
		q.PatientID = &caller.UserID
	case domain.RoleDoctor:
		q.DoctorID = &caller.UserID
	}

	paged, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	s.decorateNames(ctx, paged.Appointments)
	return paged, nil
}

func (s *AppointmentService) refundIfPaid(ctx context.Context, a *appointment.Appointment) {
	if a.PaymentStatus != appointment.PaymentPaid || a.PaymentIntentID == "" {
		return
	}
	if err := s.payments.RefundIntent(ctx, a.PaymentIntentID); err != nil {
		s.log.Error("failed to refund cancelled appointment",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}
	a.PaymentStatus = appointment.PaymentRefunded
	if err := s.repo.UpdatePaymentStatus(ctx, a.ID, appointment.PaymentRefunded); err != nil {
		s.log.Error("failed to record refund",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
	}
	s.metrics.PaymentsTotal.WithLabelValues("refunded").Inc()
}

func (s *AppointmentService) notifyPatient(ctx context.Context, a *appointment.Appointment) {
	patient, err := s.users.GetByID(ctx, a.PatientID)
	if err != nil {
		s.log.Warn("skipping appointment notification, patient lookup failed",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.notify.Enqueue(AppointmentNotification(patient.Email, patient.Name, string(a.Status), a.DateTime))
}

func (s *AppointmentService) decorateNames(ctx context.Context, appointments []*appointment.Appointment) {
	if len(appointments) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(appointments)*2)
	for _, a := range appointments {
		for _, id := range []uuid.UUID{a.DoctorID, a.PatientID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("failed to resolve appointment names", zap.Error(err))
		return
	}
	for _, a := range appointments {
		a.DoctorName = names[a.DoctorID]
		a.PatientName = names[a.PatientID]
	}
}
