package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/findadoctor/api/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const prescriptionUploadFolder = "prescriptions"

type PrescriptionService struct {
	repo         prescription.Repository
	appointments appointment.Repository
	users        domain.UserRepository
	uploads      storage.Uploader
	audit        *AuditService
	metrics      *metrics.Collector
	log          *zap.Logger
}

func NewPrescriptionService(
	repo prescription.Repository,
	appointments appointment.Repository,
	users domain.UserRepository,
	uploads storage.Uploader,
	audit *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:         repo,
		appointments: appointments,
		users:        users,
		uploads:      uploads,
		audit:        audit,
		metrics:      m,
		log:          log,
	}
}

// Create issues a prescription against an appointment. Doctor and
// patient are derived from the appointment, never taken from the
// request, so a prescription can only ever reference a real encounter.
// A doctor caller must own the appointment; staff may file for any.
func (s *PrescriptionService) Create(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, caller *domain.Claims) (*prescription.Prescription, error) {
	a, err := s.appointments.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleDoctor && a.DoctorID != caller.UserID {
		return nil, ErrForbidden
	}
	if len(cmd.Medications) == 0 && cmd.ImageURL == "" {
		return nil, prescription.ErrNoMedications
	}

	issued := cmd.IssuedDate
	if issued.IsZero() {
		issued = time.Now()
	}

	p := &prescription.Prescription{
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		AppointmentID: a.ID,
		Medications:   cmd.Medications,
		Instructions:  cmd.Instructions,
		ImageURL:      cmd.ImageURL,
		IssuedDate:    issued,
		CreatedBy:     caller.UserID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.metrics.PrescriptionsTotal.Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "prescription", ResourceID: p.ID.String(),
	})
	return p, nil
}

// UploadImage stores a scanned prescription and returns its URL.
func (s *PrescriptionService) UploadImage(ctx context.Context, file io.Reader) (string, error) {
	url, err := s.uploads.Upload(ctx, file, prescriptionUploadFolder)
	if err != nil {
		return "", fmt.Errorf("uploading prescription image: %w", err)
	}
	return url, nil
}

func (s *PrescriptionService) Get(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*prescription.Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RolePatient:
		if p.PatientID != caller.UserID {
			return nil, ErrForbidden
		}
	case domain.RoleDoctor:
		if !p.OwnedBy(caller.UserID) {
			return nil, ErrForbidden
		}
	}

	s.decorateDoctorNames(ctx, []*prescription.Prescription{p})
	return p, nil
}

// Update edits a prescription. Doctors may only touch what they issued;
// staff override.
func (s *PrescriptionService) Update(ctx context.Context, id uuid.UUID, cmd *prescription.UpdatePrescriptionCommand, caller *domain.Claims) (*prescription.Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleDoctor && !p.OwnedBy(caller.UserID) {
		return nil, prescription.ErrNotOwner
	}
	if cmd.Medications != nil && len(*cmd.Medications) == 0 && p.ImageURL == "" {
		return nil, prescription.ErrNoMedications
	}

	updated, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "prescription", ResourceID: id.String(),
	})
	return updated, nil
}

func (s *PrescriptionService) Delete(ctx context.Context, id uuid.UUID, caller *domain.Claims) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if caller.Role == domain.RoleDoctor && !p.OwnedBy(caller.UserID) {
		return prescription.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "prescription", ResourceID: id.String(),
	})
	return nil
}

// List scopes results to the caller the same way appointments are
// scoped. Staff may additionally filter by patient.
func (s *PrescriptionService) List(ctx context.Context, q *prescription.ListPrescriptionsQuery, caller *domain.Claims) (*prescription.PagedPrescriptions, error) {
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
	s.decorateDoctorNames(ctx, paged.Prescriptions)
	return paged, nil
}

func (s *PrescriptionService) decorateDoctorNames(ctx context.Context, prescriptions []*prescription.Prescription) {
	if len(prescriptions) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(prescriptions))
	for _, p := range prescriptions {
		if _, ok := seen[p.DoctorID]; !ok {
			seen[p.DoctorID] = struct{}{}
			ids = append(ids, p.DoctorID)
		}
	}

	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("failed to resolve prescription names", zap.Error(err))
		return
	}
	for _, p := range prescriptions {
		p.DoctorName = names[p.DoctorID]
	}
}
