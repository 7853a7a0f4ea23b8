package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/tracer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tr = otel.Tracer(tracer.Name)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ListByRole(ctx context.Context, role domain.Role, search string) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	DeleteDoctorAccounts(ctx context.Context, usernames []string) (int64, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuthService struct {
	users      UserRepository
	doctors    doctor.Repository
	hasher     *auth.PasswordHasher
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewAuthService(
	users UserRepository,
	doctors doctor.Repository,
	hasher *auth.PasswordHasher,
	jwtManager *auth.JWTManager,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		doctors:    doctors,
		hasher:     hasher,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
	}
}

// Login checks a username/password pair. Unknown usernames and wrong
// passwords both return ErrInvalidCredentials after one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	ctx, span := tr.Start(ctx, "AuthService.Login")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		s.metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, invalid("Username and password required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.hasher.Burn(password)
		s.failedLogin(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		s.failedLogin(ctx, username)
		return nil, ErrInvalidCredentials
	}

	who, err := s.identityFor(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionLogin, "session", who.UserID))
	s.log.Info("user logged in",
		zap.Uint("user_id", who.UserID),
		zap.String("role", string(who.Role)),
		zap.String("ip", clientInfoFrom(ctx).IP),
	)
	span.SetAttributes(attribute.String("hms.role", string(who.Role)))

	return who, nil
}

func (s *AuthService) failedLogin(ctx context.Context, username string) {
	s.metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
	s.log.Warn("failed login attempt",
		zap.String("username", username),
		zap.String("ip", clientInfoFrom(ctx).IP),
	)
}

// Resolve loads the identity behind a session's user id. It returns
// domain.ErrUserNotFound when the account no longer exists.
func (s *AuthService) Resolve(ctx context.Context, userID uint) (*domain.Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.identityFor(ctx, user)
}

// identityFor binds doctors to the profile they act as: the provisioned
// credential's doctor when one exists, otherwise the self-registered profile
// sharing the user's id. A doctor account bound to neither gets DoctorID 0
// and is refused by the doctor routes.
func (s *AuthService) identityFor(ctx context.Context, user *domain.User) (*domain.Identity, error) {
	who := &domain.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if user.Role != domain.RoleDoctor {
		return who, nil
	}

	cred, err := s.doctors.GetCredentialByUsername(ctx, user.Username)
	switch {
	case err == nil:
		who.DoctorID = cred.DoctorID
	case errors.Is(err, doctor.ErrCredentialNotFound):
		if who.DoctorID, err = s.selfRegisteredProfile(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("resolving doctor profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("resolving doctor profile: %w", err)
	}
	return who, nil
}

// selfRegisteredProfile returns userID when a doctor profile with that id
// exists and no provisioned login is bound to it, otherwise 0.
func (s *AuthService) selfRegisteredProfile(ctx context.Context, userID uint) (uint, error) {
	if _, err := s.doctors.GetByID(ctx, userID); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return 0, nil
		}
		return 0, err
	}
	provisioned, err := s.doctors.HasCredentials(ctx, userID)
	if err != nil {
		return 0, err
	}
	if provisioned {
		s.log.Warn("doctor account shares its id with a provisioned profile", zap.Uint("user_id", userID))
		return 0, nil
	}
	return userID, nil
}

func (s *AuthService) Logout(ctx context.Context, who *domain.Identity) {
	if who == nil {
		return
	}
	s.auditSvc.LogAsync(ctx, auditedBy(who, domain.ActionLogout, "session", who.UserID))
}

// IssueTokens authenticates like Login and returns a bearer token pair.
func (s *AuthService) IssueTokens(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	who, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsOf(who))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

// Refresh issues a new pair given a valid refresh token whose user still exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	who, err := s.Resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.jwtManager.GenerateTokenPair(claimsOf(who))
}

// ResolveToken turns a bearer access token into the caller's identity.
func (s *AuthService) ResolveToken(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	who, err := s.Resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return who, nil
}

func claimsOf(who *domain.Identity) *domain.Claims {
	return &domain.Claims{
		UserID:   who.UserID,
		Username: who.Username,
		Role:     who.Role,
	}
}
