package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/pkg/googleauth"
	"github.com/findadoctor/api/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role

	// Doctor fields.
	Specialty          string
	Qualifications     []string
	Experience         int
	RegistrationNumber string
	ConsultationFee    int64
	AvailableHours     []domain.AvailabilitySlot

	// Patient fields.
	DateOfBirth    *time.Time
	Gender         string
	MedicalHistory []domain.MedicalHistoryEntry

	// Staff fields.
	Department string
	Position   string
	EmployeeID string
}

type AuthService struct {
	users       domain.UserRepository
	google      googleauth.Verifier
	notify      *NotifyService
	audit       *AuditService
	metrics     *metrics.Collector
	frontendURL string
	log         *zap.Logger
}

func NewAuthService(
	users domain.UserRepository,
	google googleauth.Verifier,
	notify *NotifyService,
	audit *AuditService,
	m *metrics.Collector,
	frontendURL string,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		google:      google,
		notify:      notify,
		audit:       audit,
		metrics:     m,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Register creates a user plus its role profile. Doctor and staff
// accounts start inactive until a super admin authorizes them.
func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand) (*domain.User, error) {
	if err := validateRegistration(cmd); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(cmd.Name),
		Email:        strings.ToLower(strings.TrimSpace(cmd.Email)),
		PasswordHash: string(hash),
		Role:         cmd.Role,
		IsActive:     !cmd.Role.RequiresActivation(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.createRoleProfile(ctx, user, cmd); err != nil {
		s.log.Error("failed to create role profile",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("creating %s profile: %w", user.Role, err)
	}

	// Mail failures never fail registration.
	s.notify.Enqueue(WelcomeNotification(user.Email, user.Name))

	s.metrics.RegistrationsTotal.WithLabelValues(string(user.Role)).Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "create", ResourceType: "user", ResourceID: user.ID.String(),
	})

	return user, nil
}

// Login verifies credentials and returns the user on success. Unknown
// email and wrong password produce the identical error so responses do
// not reveal which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt comparison so the miss takes as long as a hit.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		s.metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.LoginsTotal.WithLabelValues("failed").Inc()
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.metrics.LoginsTotal.WithLabelValues("banned").Inc()
		return nil, domain.ErrUserBanned
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "login", ResourceType: "user", ResourceID: user.ID.String(),
		IPAddress: ip,
	})

	return user, nil
}

// GoogleLogin verifies a Google ID token and returns the matching user,
// provisioning a patient account on first login.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken, ip string) (*domain.User, error) {
	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.metrics.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.provisionGoogleUser(ctx, identity)
	}
	if err != nil {
		return nil, err
	}

	if !user.CanAuthenticate() {
		s.metrics.LoginsTotal.WithLabelValues("banned").Inc()
		return nil, domain.ErrUserBanned
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "login", ResourceType: "user", ResourceID: user.ID.String(),
		IPAddress: ip,
	})

	return user, nil
}

// ForgotPassword stores a single-use reset token and emails the reset
// link. Unknown emails succeed silently so the endpoint cannot be used
// to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	expires := time.Now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetTokenExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	s.notify.Enqueue(PasswordResetNotification(user.Email, user.Name, resetURL))
	return nil
}

// ResetPassword consumes a valid reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return &ValidationError{Fields: []string{"password must be at least 8 characters"}}
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !user.HasValidResetToken(token, time.Now()) {
		return domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.ResetToken = ""
	user.ResetTokenExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	s.audit.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "update", ResourceType: "user", ResourceID: user.ID.String(),
		Changes: `{"password":"reset"}`,
	})
	return nil
}

func (s *AuthService) provisionGoogleUser(ctx context.Context, identity *googleauth.Identity) (*domain.User, error) {
	// A random password keeps the column non-empty while remaining
	// unusable for password login.
	password, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating placeholder password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing placeholder password: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}

	user := &domain.User{
		Name:           name,
		Email:          strings.ToLower(identity.Email),
		PasswordHash:   string(hash),
		Role:           domain.RolePatient,
		ProfilePicture: identity.Picture,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.CreatePatientProfile(ctx, &domain.PatientProfile{UserID: user.ID}); err != nil {
		return nil, fmt.Errorf("creating patient profile: %w", err)
	}

	s.metrics.RegistrationsTotal.WithLabelValues(string(domain.RolePatient)).Inc()
	s.log.Info("provisioned patient account from google login",
		zap.String("user_id", user.ID.String()),
	)
	return user, nil
}

func (s *AuthService) createRoleProfile(ctx context.Context, user *domain.User, cmd *RegisterCommand) error {
	switch user.Role {
	case domain.RoleDoctor:
		return s.users.CreateDoctorProfile(ctx, &domain.DoctorProfile{
			UserID:             user.ID,
			Specialty:          cmd.Specialty,
			Qualifications:     cmd.Qualifications,
			Experience:         cmd.Experience,
			RegistrationNumber: cmd.RegistrationNumber,
			ConsultationFee:    cmd.ConsultationFee,
			AvailableHours:     cmd.AvailableHours,
		})
	case domain.RolePatient:
		return s.users.CreatePatientProfile(ctx, &domain.PatientProfile{
			UserID:         user.ID,
			DateOfBirth:    cmd.DateOfBirth,
			Gender:         cmd.Gender,
			MedicalHistory: cmd.MedicalHistory,
		})
	case domain.RoleStaff:
		return s.users.CreateStaffProfile(ctx, &domain.StaffProfile{
			UserID:     user.ID,
			Department: cmd.Department,
			Position:   cmd.Position,
			EmployeeID: cmd.EmployeeID,
		})
	}
	return nil
}

func validateRegistration(cmd *RegisterCommand) error {
	var fields []string

	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if strings.TrimSpace(cmd.Email) == "" || !strings.Contains(cmd.Email, "@") {
		fields = append(fields, "a valid email is required")
	}
	if len(cmd.Password) < 8 {
		fields = append(fields, "password must be at least 8 characters")
	}

	switch cmd.Role {
	case domain.RolePatient, domain.RoleStaff:
	case domain.RoleDoctor:
		if strings.TrimSpace(cmd.Specialty) == "" {
			fields = append(fields, "specialty is required for doctors")
		}
		if strings.TrimSpace(cmd.RegistrationNumber) == "" {
			fields = append(fields, "registration number is required for doctors")
		}
		if cmd.ConsultationFee < 0 {
			fields = append(fields, "consultation fee must not be negative")
		}
	default:
		// Admin accounts are seeded, never self-registered.
		fields = append(fields, "role must be one of patient, doctor, staff")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
