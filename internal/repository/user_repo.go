package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if !u.Role.IsValid() {
		return domain.ErrInvalidRole
	}
	if err := conn(ctx, r.db).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user %d: %w", id, err)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user by username: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&domain.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role, search string) ([]domain.User, error) {
	q := conn(ctx, r.db).Where("role = ?", role)
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(s))
	}

	var users []domain.User
	if err := q.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing %s users: %w", role, err)
	}
	return users, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&domain.User{}).Where("role = ?", role).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting %s users: %w", role, err)
	}
	return n, nil
}

// DeleteDoctorAccounts removes doctor-role accounts with the given usernames.
// Accounts with any other role are left alone.
func (r *UserRepository) DeleteDoctorAccounts(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	res := conn(ctx, r.db).Where("role = ? AND username IN ?", domain.RoleDoctor, usernames).Delete(&domain.User{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting doctor accounts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
