package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/findadoctor/api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil && isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "lower(email) = lower(?)", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "reset_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidResetToken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) CreateDoctorProfile(ctx context.Context, p *domain.DoctorProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *UserRepository) CreatePatientProfile(ctx context.Context, p *domain.PatientProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *UserRepository) CreateStaffProfile(ctx context.Context, p *domain.StaffProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *UserRepository) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*domain.DoctorProfile, error) {
	var p domain.DoctorProfile
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserRepository) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*domain.PatientProfile, error) {
	var p domain.PatientProfile
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserRepository) GetStaffProfile(ctx context.Context, userID uuid.UUID) (*domain.StaffProfile, error) {
	var p domain.StaffProfile
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *UserRepository) UpdateDoctorProfile(ctx context.Context, p *domain.DoctorProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *UserRepository) UpdatePatientProfile(ctx context.Context, p *domain.PatientProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *UserRepository) UpdateStaffProfile(ctx context.Context, p *domain.StaffProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *UserRepository) List(ctx context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q.Role != nil {
		tx = tx.Where("role = ?", *q.Role)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []*domain.User
	err := tx.Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return &domain.PagedUsers{
		Users:       users,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	}, nil
}

func (r *UserRepository) SearchDoctors(ctx context.Context, q *domain.SearchDoctorsQuery) (*domain.PagedDoctors, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	tx := r.db.WithContext(ctx).Model(&domain.User{}).
		Joins("JOIN doctor_profiles ON doctor_profiles.user_id = users.id").
		Where("users.role = ? AND users.is_active AND NOT users.is_banned", domain.RoleDoctor)

	if s := strings.TrimSpace(q.Name); s != "" {
		tx = tx.Where("users.name ILIKE ?", "%"+s+"%")
	}
	if s := strings.TrimSpace(q.Specialty); s != "" {
		tx = tx.Where("doctor_profiles.specialty ILIKE ?", "%"+s+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []*domain.User
	err := tx.Select("users.*").
		Order("users.name ASC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	doctors := make([]*domain.DoctorListing, 0, len(users))
	for _, u := range users {
		profile, err := r.GetDoctorProfile(ctx, u.ID)
		if err != nil {
			if errors.Is(err, domain.ErrProfileNotFound) {
				continue
			}
			return nil, err
		}
		doctors = append(doctors, &domain.DoctorListing{User: u, Profile: profile})
	}

	return &domain.PagedDoctors{
		Doctors:     doctors,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
	}, nil
}

func (r *UserRepository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role *domain.Role) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if role != nil {
		tx = tx.Where("role = ?", *role)
	}
	var total int64
	err := tx.Count(&total).Error
	return total, err
}

// isUniqueViolation matches postgres duplicate-key failures without
// importing the driver's error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}
