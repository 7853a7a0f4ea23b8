package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) doctor.Repository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if err := conn(ctx, r.db).Create(d).Error; err != nil {
		if isDuplicate(err) {
			return doctor.ErrDoctorIDConflict
		}
		return fmt.Errorf("inserting doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id uint) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := conn(ctx, r.db).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("loading doctor %d: %w", id, err)
	}
	return &d, nil
}

func (r *doctorRepository) Update(ctx context.Context, id uint, cmd *doctor.UpdateDoctorCommand) error {
	res := conn(ctx, r.db).Model(&doctor.Doctor{}).Where("id = ?", id).Updates(map[string]any{
		"name":           cmd.Name,
		"specialization": cmd.Specialization,
		"availability":   cmd.Availability,
	})
	if res.Error != nil {
		return fmt.Errorf("updating doctor %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&doctor.Doctor{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting doctor %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, search string) ([]doctor.Doctor, error) {
	q := conn(ctx, r.db).Model(&doctor.Doctor{})
	if s := strings.TrimSpace(search); s != "" {
		pattern := containsPattern(s)
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(specialization) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var doctors []doctor.Doctor
	if err := q.Order("id").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListByAvailability(ctx context.Context, a doctor.Availability) ([]doctor.Doctor, error) {
	var doctors []doctor.Doctor
	if err := conn(ctx, r.db).Where("availability = ?", a).Order("id").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing %s doctors: %w", a, err)
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&doctor.Doctor{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting doctors: %w", err)
	}
	return n, nil
}

func (r *doctorRepository) CreateCredential(ctx context.Context, c *doctor.Credential) error {
	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("inserting doctor credential: %w", err)
	}
	return nil
}

func (r *doctorRepository) GetCredentialByUsername(ctx context.Context, username string) (*doctor.Credential, error) {
	var c doctor.Credential
	if err := conn(ctx, r.db).Where("username = ?", username).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("loading doctor credential: %w", err)
	}
	return &c, nil
}

func (r *doctorRepository) ExistsCredentialUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&doctor.Credential{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking credential username: %w", err)
	}
	return n > 0, nil
}

func (r *doctorRepository) DeleteCredentials(ctx context.Context, doctorID uint) (int64, error) {
	res := conn(ctx, r.db).Where("doctor_id = ?", doctorID).Delete(&doctor.Credential{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting credentials of doctor %d: %w", doctorID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *doctorRepository) CredentialUsernames(ctx context.Context, doctorID uint) ([]string, error) {
	var usernames []string
	if err := conn(ctx, r.db).Model(&doctor.Credential{}).Where("doctor_id = ?", doctorID).Order("id").Pluck("username", &usernames).Error; err != nil {
		return nil, fmt.Errorf("listing credentials of doctor %d: %w", doctorID, err)
	}
	return usernames, nil
}

func (r *doctorRepository) HasCredentials(ctx context.Context, doctorID uint) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&doctor.Credential{}).Where("doctor_id = ?", doctorID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("counting credentials of doctor %d: %w", doctorID, err)
	}
	return n > 0, nil
}

func (r *doctorRepository) ListCredentials(ctx context.Context) ([]doctor.CredentialView, error) {
	var views []doctor.CredentialView
	err := conn(ctx, r.db).
		Table("doctor_credentials AS dc").
		Select("dc.id, d.name AS doctor_name, dc.username, dc.password AS password_hash").
		Joins("JOIN doctors d ON dc.doctor_id = d.id").
		Order("dc.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("listing doctor credentials: %w", err)
	}
	return views, nil
}
