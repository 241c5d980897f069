package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists the base identity and its role profiles.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, u *User) error

	CreateDoctorProfile(ctx context.Context, p *DoctorProfile) error
	CreatePatientProfile(ctx context.Context, p *PatientProfile) error
	CreateStaffProfile(ctx context.Context, p *StaffProfile) error
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	GetStaffProfile(ctx context.Context, userID uuid.UUID) (*StaffProfile, error)
	UpdateDoctorProfile(ctx context.Context, p *DoctorProfile) error
	UpdatePatientProfile(ctx context.Context, p *PatientProfile) error
	UpdateStaffProfile(ctx context.Context, p *StaffProfile) error

	// List returns users filtered by role (nil for all), newest first.
	List(ctx context.Context, q *ListUsersQuery) (*PagedUsers, error)

	// SearchDoctors filters active, unbanned doctors by case-insensitive
	// substring on name and specialty.
	SearchDoctors(ctx context.Context, q *SearchDoctorsQuery) (*PagedDoctors, error)

	// NamesByIDs resolves user ids to display names for response projections.
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	CountByRole(ctx context.Context, role *Role) (int64, error)
}

type ListUsersQuery struct {
	Role *Role
	// Search is a case-insensitive substring matched on name and email.
	Search string
	Page   int
	Limit  int
}

type PagedUsers struct {
	Users       []*User
	Total       int64
	CurrentPage int
	TotalPages  int
}

// DoctorListing joins the base user with its doctor profile for
// patient-facing search results.
type DoctorListing struct {
	User    *User          `json:"user"`
	Profile *DoctorProfile `json:"profile"`
}

type SearchDoctorsQuery struct {
	Name      string
	Specialty string
	Page      int
	Limit     int
}

type PagedDoctors struct {
	Doctors     []*DoctorListing
	Total       int64
	CurrentPage int
	TotalPages  int
}
