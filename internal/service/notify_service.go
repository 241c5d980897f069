package service

import (
	"fmt"
	"time"

	"github.com/findadoctor/api/pkg/mailer"
	"github.com/findadoctor/api/pkg/metrics"
	"go.uber.org/zap"
)

// Notification kinds, used as the metric label.
const (
	NotifyWelcome       = "welcome"
	NotifyPasswordReset = "password_reset"
	NotifyAppointment   = "appointment"
	NotifyReminder      = "reminder"
)

type Notification struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// NotifyService delivers email off the request path. Notifications are
// best-effort: a full buffer drops the message rather than blocking the
// caller, and delivery failures are logged, never surfaced.
type NotifyService struct {
	sender  mailer.Sender
	log     *zap.Logger
	metrics *metrics.Collector
	queue   chan Notification
	done    chan struct{}
}

const notifyBufferSize = 1_000

func NewNotifyService(sender mailer.Sender, m *metrics.Collector, log *zap.Logger) *NotifyService {
	svc := &NotifyService{
		sender:  sender,
		log:     log,
		metrics: m,
		queue:   make(chan Notification, notifyBufferSize),
		done:    make(chan struct{}),
	}
	go svc.worker()
	return svc
}

func (s *NotifyService) Enqueue(n Notification) {
	select {
	case s.queue <- n:
	default:
		s.metrics.NotificationsDropped.Inc()
		s.log.Warn("notification buffer full, dropping message",
			zap.String("kind", n.Kind),
		)
	}
}

func (s *NotifyService) Shutdown() {
	close(s.queue)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("notify service shutdown timed out; some messages may be lost")
	}
}

func (s *NotifyService) worker() {
	defer close(s.done)
	for n := range s.queue {
		if err := s.sender.Send(n.To, n.Subject, n.Body); err != nil {
			s.log.Error("failed to send notification email",
				zap.String("kind", n.Kind),
				zap.Error(err),
			)
			continue
		}
		s.metrics.NotificationsSent.WithLabelValues(n.Kind).Inc()
	}
}

func WelcomeNotification(to, name string) Notification {
	return Notification{
		Kind:    NotifyWelcome,
		To:      to,
		Subject: "Welcome to FindADoctor",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your FindADoctor account has been created. "+
				"You can now log in and book appointments.</p>", name),
	}
}

func PasswordResetNotification(to, name, resetURL string) Notification {
	return Notification{
		Kind:    NotifyPasswordReset,
		To:      to,
		Subject: "Reset your FindADoctor password",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>We received a request to reset your password. "+
				"The link below is valid for one hour.</p><p><a href=%q>Reset password</a></p>"+
				"<p>If you did not request this, you can ignore this email.</p>",
			name, resetURL),
	}
}

func AppointmentNotification(to, name, status string, when time.Time) Notification {
	return Notification{
		Kind:    NotifyAppointment,
		To:      to,
		Subject: fmt.Sprintf("Your appointment is %s", status),
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your appointment on %s is now <b>%s</b>.</p>",
			name, when.Format("Mon, 02 Jan 2006 at 15:04"), status),
	}
}

func ReminderNotification(to, name string, when time.Time) Notification {
	return Notification{
		Kind:    NotifyReminder,
		To:      to,
		Subject: "Appointment reminder",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p><p>This is a reminder for your appointment on %s.</p>",
			name, when.Format("Mon, 02 Jan 2006 at 15:04")),
	}
}
