package worker

import (
	"context"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/service"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Reminder periodically emails patients about appointments approaching
// the reminder horizon. Each run covers only the slice of the horizon
// that falls to it, so an appointment is reminded once, not on every
// run. Delivery is best-effort: a failed lookup or send is logged and
// skipped, never retried within the run.
type Reminder struct {
	cfg          config.ReminderConfig
	appointments appointment.Repository
	users        domain.UserRepository
	notify       *service.NotifyService
	metrics      *metrics.Collector
	log          *zap.Logger
	scheduler    *gocron.Scheduler
}

func NewReminder(
	cfg config.ReminderConfig,
	appointments appointment.Repository,
	users domain.UserRepository,
	notify *service.NotifyService,
	m *metrics.Collector,
	log *zap.Logger,
) *Reminder {
	return &Reminder{
		cfg:          cfg,
		appointments: appointments,
		users:        users,
		notify:       notify,
		metrics:      m,
		log:          log,
		scheduler:    gocron.NewScheduler(time.Local),
	}
}

func (r *Reminder) Start() error {
	if !r.cfg.Enabled {
		r.log.Info("reminder job disabled")
		return nil
	}

	if _, err := r.scheduler.Every(r.cfg.Interval).Do(r.run); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	r.log.Info("reminder job started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Int("window_hours", r.cfg.WindowHours),
	)
	return nil
}

func (r *Reminder) Stop() {
	r.scheduler.Stop()
}

// reminderSlice bounds one run to the half-open interval
// (horizon-interval, horizon]: appointments that just crossed the
// reminder horizon since the previous run. Consecutive runs tile the
// horizon, so each appointment lands in exactly one slice.
func reminderSlice(now time.Time, cfg config.ReminderConfig) (time.Time, time.Time) {
	to := now.Add(time.Duration(cfg.WindowHours) * time.Hour)
	return to.Add(-cfg.Interval), to
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	from, to := reminderSlice(time.Now(), r.cfg)

	upcoming, err := r.appointments.GetUpcoming(ctx, from, to)
	if err != nil {
		r.log.Error("reminder run failed to load appointments", zap.Error(err))
		return
	}

	for _, a := range upcoming {
		patient, err := r.users.GetByID(ctx, a.PatientID)
		if err != nil {
			r.log.Warn("skipping reminder, patient lookup failed",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		r.notify.Enqueue(service.ReminderNotification(patient.Email, patient.Name, a.DateTime))
		r.metrics.RemindersSent.Inc()
	}

	if len(upcoming) > 0 {
		r.log.Info("reminder run completed", zap.Int("appointments", len(upcoming)))
	}
}
