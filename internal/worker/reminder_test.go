package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/service"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the whole package shares one.
var testMetrics = metrics.NewCollector("workertest")

func testReminderConfig() config.ReminderConfig {
	return config.ReminderConfig{
		Enabled:     true,
		Interval:    time.Hour,
		WindowHours: 24,
	}
}

// stubAppointments only answers GetUpcoming; the embedded interface
// panics on anything else, which is what we want in these tests.
type stubAppointments struct {
	appointment.Repository
	upcoming []*appointment.Appointment
	from, to time.Time
}

func (s *stubAppointments) GetUpcoming(_ context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	s.from, s.to = from, to
	return s.upcoming, nil
}

type stubUsers struct {
	domain.UserRepository
	user *domain.User
}

func (s *stubUsers) GetByID(_ context.Context, _ uuid.UUID) (*domain.User, error) {
	return s.user, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(to, subject, htmlBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestReminderSlice_ConsecutiveRunsTile(t *testing.T) {
	cfg := testReminderConfig()
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	from1, to1 := reminderSlice(now, cfg)
	from2, to2 := reminderSlice(now.Add(cfg.Interval), cfg)

	// The slice is interval-wide, ends at the horizon, and the next
	// run's slice starts exactly where this one ended: with half-open
	// (from, to] windows no appointment is selected twice.
	assert.Equal(t, cfg.Interval, to1.Sub(from1))
	assert.Equal(t, now.Add(24*time.Hour), to1)
	assert.Equal(t, to1, from2)
	assert.Equal(t, to1.Add(cfg.Interval), to2)
}

func TestRun_OneReminderPerAppointment(t *testing.T) {
	patient := &domain.User{
		ID:    uuid.New(),
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Role:  domain.RolePatient,
	}
	appointments := &stubAppointments{
		upcoming: []*appointment.Appointment{
			{ID: uuid.New(), PatientID: patient.ID, DateTime: time.Now().Add(24 * time.Hour)},
			{ID: uuid.New(), PatientID: patient.ID, DateTime: time.Now().Add(24 * time.Hour)},
		},
	}

	sender := &recordingSender{}
	notify := service.NewNotifyService(sender, testMetrics, zap.NewNop())

	r := NewReminder(testReminderConfig(), appointments, &stubUsers{user: patient}, notify, testMetrics, zap.NewNop())
	r.run()
	notify.Shutdown()

	assert.Equal(t, 2, sender.count())
	assert.Equal(t, time.Hour, appointments.to.Sub(appointments.from))
}
