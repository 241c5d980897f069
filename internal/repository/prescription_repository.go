package repository

import (
	"context"
	"errors"
	"time"

	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrescriptionRepository) Update(ctx context.Context, id uuid.UUID, cmd *prescription.UpdatePrescriptionCommand) (*prescription.Prescription, error) {
	updates := map[string]any{}
	if cmd.Instructions != nil {
		updates["instructions"] = *cmd.Instructions
	}
	if cmd.ImageURL != nil {
		updates["image_url"] = *cmd.ImageURL
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p prescription.Prescription
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return prescription.ErrPrescriptionNotFound
			}
			return err
		}
		if cmd.Medications != nil {
			p.Medications = *cmd.Medications
			if err := tx.Model(&p).Update("medications", p.Medications).Error; err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&p).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *PrescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&prescription.Prescription{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&prescription.Prescription{})
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var prescriptions []*prescription.Prescription
	err := tx.Order("issued_date DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&prescriptions).Error
	if err != nil {
		return nil, err
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: prescriptions,
		Total:         total,
		CurrentPage:   page,
		TotalPages:    totalPages(total, limit),
	}, nil
}

func (r *PrescriptionRepository) CountActiveByPatient(ctx context.Context, patientID uuid.UUID) (int64, error) {
	cutoff := time.Now().Add(-prescription.ActiveWindow)

	var total int64
	err := r.db.WithContext(ctx).Model(&prescription.Prescription{}).
		Where("patient_id = ? AND issued_date > ?", patientID, cutoff).
		Count(&total).Error
	return total, err
}
