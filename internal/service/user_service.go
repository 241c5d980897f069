package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const profileUploadFolder = "profiles"

// Profile joins the base user with whichever role profile applies.
type Profile struct {
	User    *domain.User           `json:"user"`
	Doctor  *domain.DoctorProfile  `json:"doctor,omitempty"`
	Patient *domain.PatientProfile `json:"patient,omitempty"`
	Staff   *domain.StaffProfile   `json:"staff,omitempty"`
}

type UpdateProfileCommand struct {
	Name *string

	// Doctor fields.
	Specialty       *string
	Qualifications  *[]string
	Experience      *int
	ConsultationFee *int64
	AvailableHours  *[]domain.AvailabilitySlot

	// Patient fields.
	DateOfBirth    *time.Time
	Gender         *string
	MedicalHistory *[]domain.MedicalHistoryEntry

	// Staff fields.
	Department *string
	Position   *string
	EmployeeID *string
}

type UserService struct {
	users   domain.UserRepository
	uploads storage.Uploader
	audit   *AuditService
	log     *zap.Logger
}

func NewUserService(users domain.UserRepository, uploads storage.Uploader, audit *AuditService, log *zap.Logger) *UserService {
	return &UserService{users: users, uploads: uploads, audit: audit, log: log}
}

// GetProfile loads a user with its role profile. A missing profile row
// is tolerated so a partially provisioned account can still log in and
// fill it out.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: user}
	switch user.Role {
	case domain.RoleDoctor:
		if dp, err := s.users.GetDoctorProfile(ctx, userID); err == nil {
			p.Doctor = dp
		}
	case domain.RolePatient:
		if pp, err := s.users.GetPatientProfile(ctx, userID); err == nil {
			p.Patient = pp
		}
	case domain.RoleStaff:
		if sp, err := s.users.GetStaffProfile(ctx, userID); err == nil {
			p.Staff = sp
		}
	}
	return p, nil
}

// UpdateProfile applies partial updates to the user and its role
// profile. Role, email, and moderation flags are not editable here.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, cmd *UpdateProfileCommand) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, &ValidationError{Fields: []string{"name must not be empty"}}
		}
		user.Name = name
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("updating user: %w", err)
		}
	}

	switch user.Role {
	case domain.RoleDoctor:
		if err := s.updateDoctorProfile(ctx, userID, cmd); err != nil {
			return nil, err
		}
	case domain.RolePatient:
		if err := s.updatePatientProfile(ctx, userID, cmd); err != nil {
			return nil, err
		}
	case domain.RoleStaff:
		if err := s.updateStaffProfile(ctx, userID, cmd); err != nil {
			return nil, err
		}
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: userID, UserRole: string(user.Role),
		Action: "update", ResourceType: "user", ResourceID: userID.String(),
	})
	return s.GetProfile(ctx, userID)
}

// UploadProfilePicture stores the image and records its URL on the user.
func (s *UserService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, file io.Reader) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.uploads.Upload(ctx, file, profileUploadFolder)
	if err != nil {
		return "", fmt.Errorf("uploading profile picture: %w", err)
	}

	user.ProfilePicture = url
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("saving profile picture: %w", err)
	}
	return url, nil
}

// SearchDoctors is the patient-facing directory: active, unbanned
// doctors matched by name or specialty substring.
func (s *UserService) SearchDoctors(ctx context.Context, q *domain.SearchDoctorsQuery) (*domain.PagedDoctors, error) {
	return s.users.SearchDoctors(ctx, q)
}

// GetDoctor returns one doctor's public listing.
func (s *UserService) GetDoctor(ctx context.Context, id uuid.UUID) (*domain.DoctorListing, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDoctor || !user.IsActive || user.IsBanned {
		return nil, domain.ErrUserNotFound
	}
	profile, err := s.users.GetDoctorProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DoctorListing{User: user, Profile: profile}, nil
}

// ListPatients is the staff/doctor patient directory.
func (s *UserService) ListPatients(ctx context.Context, search string, page, limit int) (*domain.PagedUsers, error) {
	role := domain.RolePatient
	return s.users.List(ctx, &domain.ListUsersQuery{
		Role:   &role,
		Search: search,
		Page:   page,
		Limit:  limit,
	})
}

func (s *UserService) updateDoctorProfile(ctx context.Context, userID uuid.UUID, cmd *UpdateProfileCommand) error {
	profile, err := s.users.GetDoctorProfile(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Specialty != nil {
		profile.Specialty = *cmd.Specialty
	}
	if cmd.Qualifications != nil {
		profile.Qualifications = *cmd.Qualifications
	}
	if cmd.Experience != nil {
		profile.Experience = *cmd.Experience
	}
	if cmd.ConsultationFee != nil {
		if *cmd.ConsultationFee < 0 {
			return &ValidationError{Fields: []string{"consultation fee must not be negative"}}
		}
		profile.ConsultationFee = *cmd.ConsultationFee
	}
	if cmd.AvailableHours != nil {
		profile.AvailableHours = *cmd.AvailableHours
	}
	return s.users.UpdateDoctorProfile(ctx, profile)
}

func (s *UserService) updatePatientProfile(ctx context.Context, userID uuid.UUID, cmd *UpdateProfileCommand) error {
	profile, err := s.users.GetPatientProfile(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.DateOfBirth != nil {
		profile.DateOfBirth = cmd.DateOfBirth
	}
	if cmd.Gender != nil {
		profile.Gender = *cmd.Gender
	}
	if cmd.MedicalHistory != nil {
		profile.MedicalHistory = *cmd.MedicalHistory
	}
	return s.users.UpdatePatientProfile(ctx, profile)
}

func (s *UserService) updateStaffProfile(ctx context.Context, userID uuid.UUID, cmd *UpdateProfileCommand) error {
	profile, err := s.users.GetStaffProfile(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Department != nil {
		profile.Department = *cmd.Department
	}
	if cmd.Position != nil {
		profile.Position = *cmd.Position
	}
	if cmd.EmployeeID != nil {
		profile.EmployeeID = *cmd.EmployeeID
	}
	return s.users.UpdateStaffProfile(ctx, profile)
}
