package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePrescriptionCommand) (*Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListPrescriptionsQuery) (*PagedPrescriptions, error)
	CountActiveByPatient(ctx context.Context, patientID uuid.UUID) (int64, error)
}
