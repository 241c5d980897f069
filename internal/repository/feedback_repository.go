package repository

import (
	"context"
	"errors"

	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if err != nil && isUniqueViolation(err) {
		return feedback.ErrDuplicateFeedback
	}
	return err
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*feedback.Feedback, error) {
	var f feedback.Feedback
	err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, feedback.ErrFeedbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeedbackRepository) List(ctx context.Context, q *feedback.ListFeedbackQuery) (*feedback.PagedFeedback, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&feedback.Feedback{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if !q.IncludeModerated {
		tx = tx.Where("NOT is_moderated")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*feedback.Feedback
	err := tx.Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &feedback.PagedFeedback{
		Feedback:    items,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	}, nil
}

func (r *FeedbackRepository) SetModerated(ctx context.Context, id uuid.UUID, moderated bool) (*feedback.Feedback, error) {
	res := r.db.WithContext(ctx).Model(&feedback.Feedback{}).
		Where("id = ?", id).
		Update("is_moderated", moderated)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, feedback.ErrFeedbackNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *FeedbackRepository) ExistsForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&feedback.Feedback{}).
		Where("patient_id = ? AND appointment_id = ?", patientID, appointmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *FeedbackRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&feedback.Feedback{}).Count(&total).Error
	return total, err
}

type SpamReportRepository struct {
	db *gorm.DB
}

func NewSpamReportRepository(db *gorm.DB) *SpamReportRepository {
	return &SpamReportRepository{db: db}
}

func (r *SpamReportRepository) Create(ctx context.Context, report *feedback.SpamReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *SpamReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*feedback.SpamReport, error) {
	var report feedback.SpamReport
	err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, feedback.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *SpamReportRepository) List(ctx context.Context, q *feedback.ListSpamReportsQuery) (*feedback.PagedSpamReports, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&feedback.SpamReport{})
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var reports []*feedback.SpamReport
	err := tx.Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}

	return &feedback.PagedSpamReports{
		Reports:     reports,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	}, nil
}

func (r *SpamReportRepository) Update(ctx context.Context, report *feedback.SpamReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *SpamReportRepository) CountPending(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&feedback.SpamReport{}).
		Where("status = ?", feedback.ReportPending).
		Count(&total).Error
	return total, err
}
