package database

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAdmin creates the bootstrap administrator when no admin account exists.
// It runs once at setup time and reports whether an account was created.
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg config.SeedConfig, hasher *auth.PasswordHasher, log *zap.Logger) (bool, error) {
	var admins int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&admins).Error; err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	if admins > 0 {
		return false, nil
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	admin := &domain.User{Username: cfg.AdminUsername, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return false, fmt.Errorf("creating admin %q: %w", cfg.AdminUsername, err)
	}

	log.Warn("bootstrap admin account created; change its password before exposing the service",
		zap.String("username", admin.Username),
		zap.Uint("user_id", admin.ID),
	)
	return true, nil
}
