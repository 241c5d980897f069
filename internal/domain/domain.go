package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleStaff, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// RequiresActivation reports whether accounts of this role must be
// authorized by a super admin before using role-gated routes.
func (r Role) RequiresActivation() bool {
	return r == RoleDoctor || r == RoleStaff
}

// User is the base identity record. Role-specific data lives in the
// profile tables keyed by user id; the Role field is the discriminator
// selecting which profile applies.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	Name         string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index" json:"role"`

	ProfilePicture string `gorm:"column:profile_picture;type:text" json:"profilePicture,omitempty"`

	// IsActive gates doctor and staff accounts behind super-admin approval.
	// Patients are active from registration.
	IsActive bool `gorm:"column:is_active;default:false;index" json:"isActive"`
	IsBanned bool `gorm:"column:is_banned;default:false;index" json:"isBanned"`

	// Single-use password reset token, cleared on successful reset.
	ResetToken        string     `gorm:"column:reset_token;type:varchar(100);index" json:"-"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// CanAuthenticate reports whether a login or an authenticated request
// from this user should be accepted at all. Activation is checked
// separately by the active gate, not here.
func (u *User) CanAuthenticate() bool {
	return !u.IsBanned && u.DeletedAt == nil
}

func (u *User) HasValidResetToken(token string, now time.Time) bool {
	return u.ResetToken != "" &&
		u.ResetToken == token &&
		u.ResetTokenExpires != nil &&
		now.Before(*u.ResetTokenExpires)
}

// AvailabilitySlot is one weekly recurring consultation window.
type AvailabilitySlot struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// DoctorProfile extends a user with role doctor.
type DoctorProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	Specialty          string             `gorm:"column:specialty;type:varchar(100);not null;index" json:"specialty"`
	Qualifications     []string           `gorm:"column:qualifications;serializer:json" json:"qualifications"`
	Experience         int                `gorm:"column:experience;not null" json:"experience"`
	RegistrationNumber string             `gorm:"column:registration_number;type:varchar(50);not null" json:"registrationNumber"`
	ConsultationFee    int64              `gorm:"column:consultation_fee;not null" json:"consultationFee"`
	AvailableHours     []AvailabilitySlot `gorm:"column:available_hours;serializer:json" json:"availableHours"`

	RatingSum    int64 `gorm:"column:rating_sum;default:0" json:"-"`
	TotalRatings int64 `gorm:"column:total_ratings;default:0" json:"totalRatings"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// Rating returns the aggregate rating for display.
func (d *DoctorProfile) Rating() float64 {
	if d.TotalRatings == 0 {
		return 0
	}
	return float64(d.RatingSum) / float64(d.TotalRatings)
}

// AddRating folds a new 1-5 rating into the aggregate.
func (d *DoctorProfile) AddRating(rating int) {
	d.RatingSum += int64(rating)
	d.TotalRatings++
}

type MedicalHistoryEntry struct {
	Condition     string   `json:"condition"`
	DiagnosedDate string   `json:"diagnosedDate"`
	Medications   []string `json:"medications"`
}

// PatientProfile extends a user with role patient.
type PatientProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	DateOfBirth    *time.Time            `gorm:"column:date_of_birth" json:"dateOfBirth,omitempty"`
	Gender         string                `gorm:"column:gender;type:varchar(20)" json:"gender,omitempty"`
	MedicalHistory []MedicalHistoryEntry `gorm:"column:medical_history;serializer:json" json:"medicalHistory"`
}

func (PatientProfile) TableName() string {
	return "patient_profiles"
}

// StaffProfile extends a user with role staff.
type StaffProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	Department string `gorm:"column:department;type:varchar(100)" json:"department"`
	Position   string `gorm:"column:position;type:varchar(100)" json:"position"`
	EmployeeID string `gorm:"column:employee_id;type:varchar(50)" json:"employeeId"`
}

func (StaffProfile) TableName() string {
	return "staff_profiles"
}

// Claims is the identity carried by a verified session token.
type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"`

	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
