package repository

import (
	"context"
	"errors"
	"time"

	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var appointments []*appointment.Appointment
	err := tx.Order("date_time ASC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}

	return &appointment.PagedAppointments{
		Appointments: appointments,
		Total:        total,
		CurrentPage:  page,
		TotalPages:   totalPages(total, limit),
	}, nil
}

// UpdateStatus is a conditional write: it only applies when the stored
// status still matches expectedStatus, so two concurrent transitions
// cannot silently overwrite each other.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment, expectedStatus appointment.Status) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", a.ID, expectedStatus).
		Updates(map[string]any{
			"status":    a.Status,
			"date_time": a.DateTime,
			"notes":     a.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrStatusConflict
	}
	return nil
}

func (r *AppointmentRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status appointment.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("payment_intent_id", intentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&appointment.Appointment{}, "id = ?", id).Error
}

func (r *AppointmentRepository) GetUpcoming(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	// Half-open (from, to]: callers tile consecutive windows, and a
	// boundary-exact appointment must land in only one of them.
	var appointments []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ? AND date_time > ? AND date_time <= ?", appointment.StatusScheduled, from, to).
		Order("date_time ASC").
		Find(&appointments).Error
	return appointments, err
}

func (r *AppointmentRepository) CountByPatient(ctx context.Context, patientID uuid.UUID, onlyFuture bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("patient_id = ?", patientID)
	if onlyFuture {
		tx = tx.Where("date_time >= ?", time.Now())
	}
	var total int64
	err := tx.Count(&total).Error
	return total, err
}

func (r *AppointmentRepository) CountByDoctor(ctx context.Context, doctorID uuid.UUID, status *appointment.Status) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("doctor_id = ?", doctorID)
	if status != nil {
		tx = tx.Where("status = ?", *status)
	}
	var total int64
	err := tx.Count(&total).Error
	return total, err
}
