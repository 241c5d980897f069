package service

import (
	"context"
	"fmt"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DashboardStats is the admin/super-admin landing view.
type DashboardStats struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalDoctors       int64 `json:"totalDoctors"`
	TotalPatients      int64 `json:"totalPatients"`
	TotalStaff         int64 `json:"totalStaff"`
	TotalFeedback      int64 `json:"totalFeedback"`
	PendingSpamReports int64 `json:"pendingSpamReports"`
}

// PatientStats backs the patient dashboard cards.
type PatientStats struct {
	UpcomingAppointments int64 `json:"upcomingAppointments"`
	TotalAppointments    int64 `json:"totalAppointments"`
	ActivePrescriptions  int64 `json:"activePrescriptions"`
}

// DoctorStats backs the doctor dashboard cards.
type DoctorStats struct {
	TotalAppointments     int64   `json:"totalAppointments"`
	CompletedAppointments int64   `json:"completedAppointments"`
	Rating                float64 `json:"rating"`
	TotalRatings          int64   `json:"totalRatings"`
}

type AdminService struct {
	users         domain.UserRepository
	appointments  appointment.Repository
	prescriptions prescription.Repository
	feedback      feedback.Repository
	reports       feedback.SpamReportRepository
	audit         *AuditService
	log           *zap.Logger
}

func NewAdminService(
	users domain.UserRepository,
	appointments appointment.Repository,
	prescriptions prescription.Repository,
	fb feedback.Repository,
	reports feedback.SpamReportRepository,
	audit *AuditService,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
		feedback:      fb,
		reports:       reports,
		audit:         audit,
		log:           log,
	}
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.TotalUsers, err = s.users.CountByRole(ctx, nil); err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	counts := []struct {
		role domain.Role
		dst  *int64
	}{
		{domain.RoleDoctor, &stats.TotalDoctors},
		{domain.RolePatient, &stats.TotalPatients},
		{domain.RoleStaff, &stats.TotalStaff},
	}
	for _, c := range counts {
		role := c.role
		if *c.dst, err = s.users.CountByRole(ctx, &role); err != nil {
			return nil, fmt.Errorf("counting %s users: %w", role, err)
		}
	}

	if stats.TotalFeedback, err = s.feedback.Count(ctx); err != nil {
		return nil, fmt.Errorf("counting feedback: %w", err)
	}
	if stats.PendingSpamReports, err = s.reports.CountPending(ctx); err != nil {
		return nil, fmt.Errorf("counting pending reports: %w", err)
	}

	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error) {
	return s.users.List(ctx, q)
}

// AuthorizeUser activates a doctor or staff account pending approval.
func (s *AdminService) AuthorizeUser(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsActive {
		return user, nil
	}

	user.IsActive = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("authorizing user: %w", err)
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "user", ResourceID: id.String(),
		Changes: `{"isActive":true}`,
	})
	return user, nil
}

// SetBanned bans or unbans a user. The flag is re-checked on every
// authenticated request, so a ban takes effect at the next auth check
// even if a session token is still live.
func (s *AdminService) SetBanned(ctx context.Context, id uuid.UUID, banned bool, caller *domain.Claims) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	user.IsBanned = banned
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating ban flag: %w", err)
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "user", ResourceID: id.String(),
		Changes: fmt.Sprintf(`{"isBanned":%t}`, banned),
	})
	return user, nil
}

func (s *AdminService) PatientStats(ctx context.Context, patientID uuid.UUID) (*PatientStats, error) {
	stats := &PatientStats{}

	var err error
	if stats.UpcomingAppointments, err = s.appointments.CountByPatient(ctx, patientID, true); err != nil {
		return nil, err
	}
	if stats.TotalAppointments, err = s.appointments.CountByPatient(ctx, patientID, false); err != nil {
		return nil, err
	}
	if stats.ActivePrescriptions, err = s.prescriptions.CountActiveByPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) DoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	stats := &DoctorStats{}

	var err error
	if stats.TotalAppointments, err = s.appointments.CountByDoctor(ctx, doctorID, nil); err != nil {
		return nil, err
	}
	completed := appointment.StatusCompleted
	if stats.CompletedAppointments, err = s.appointments.CountByDoctor(ctx, doctorID, &completed); err != nil {
		return nil, err
	}

	profile, err := s.users.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	stats.Rating = profile.Rating()
	stats.TotalRatings = profile.TotalRatings

	return stats, nil
}
