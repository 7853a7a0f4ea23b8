package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"go.uber.org/zap"
)

type RegistrationService struct {
	tx       Transactor
	users    UserRepository
	doctors  doctor.Repository
	hasher   *auth.PasswordHasher
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewRegistrationService(
	tx Transactor,
	users UserRepository,
	doctors doctor.Repository,
	hasher *auth.PasswordHasher,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		tx:       tx,
		users:    users,
		doctors:  doctors,
		hasher:   hasher,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

// RegisterPatient creates a patient account. A taken username returns
// domain.ErrUsernameTaken and leaves users untouched.
func (s *RegistrationService) RegisterPatient(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, invalid("Username and password required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: username, PasswordHash: hash, Role: domain.RolePatient}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.registered(ctx, u, "self")
	return u, nil
}

// RegisterDoctor creates a doctor account and the profile sharing its id in
// one transaction.
func (s *RegistrationService) RegisterDoctor(ctx context.Context, cmd *doctor.RegisterDoctorCommand) (*doctor.Doctor, error) {
	ctx, span := tr.Start(ctx, "RegistrationService.RegisterDoctor")
	defer span.End()

	username := strings.TrimSpace(cmd.Username)
	name := strings.TrimSpace(cmd.Name)
	spec := strings.TrimSpace(cmd.Specialization)
	if username == "" || strings.TrimSpace(cmd.Password) == "" || name == "" || spec == "" {
		return nil, invalid("All fields required")
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleDoctor}
	var d *doctor.Doctor
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		d = &doctor.Doctor{
			ID:             u.ID,
			Name:           name,
			Specialization: spec,
			Availability:   doctor.Available,
		}
		return s.doctors.Create(ctx, d)
	})
	if err != nil {
		s.log.Info("doctor registration rejected", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("registering doctor: %w", err)
	}

	s.registered(ctx, u, "self")
	return d, nil
}

func (s *RegistrationService) registered(ctx context.Context, u *domain.User, channel string) {
	s.metrics.RegistrationsTotal.WithLabelValues(string(u.Role), channel).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       u.ID,
		UserRole:     u.Role,
		Action:       domain.ActionCreate,
		ResourceType: "user",
		ResourceID:   fmt.Sprint(u.ID),
	})
	s.log.Info("account registered",
		zap.Uint("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("channel", channel),
	)
}
