package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-identity/internal/auth"
	"github.com/spec-kit/storefront-identity/internal/config"
	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
	"github.com/spec-kit/storefront-identity/internal/observability"
	"github.com/spec-kit/storefront-identity/internal/repository"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

// AuthService coordinates registration, login and logout for customers and
// admins.
type AuthService struct {
	customers repository.CustomerRepository
	admins    repository.AdminRepository
	lifecycle *LifecycleService
	roles     identity.RoleResolver
	hasher    auth.PasswordHasher
	tokenMgr  *auth.TokenManager
	revoker   auth.TokenRevoker
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	AdminRepo    repository.AdminRepository
	Lifecycle    *LifecycleService
	Revoker      auth.TokenRevoker
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// CustomerSession is returned by customer registration and login.
type CustomerSession struct {
	Customer   *domain.CustomerAccount
	Token      string
	ExpiresAt  time.Time
	Resolution identity.Resolution
	Advisory   *identity.Advisory
}

// AdminSession is returned by admin login. Role is the freshly resolved role
// embedded in the token.
type AdminSession struct {
	Admin     *domain.AdminAccount
	Role      domain.AdminRole
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, opts ...Option) *AuthService {
	o := applyOptions(opts)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		customers: deps.CustomerRepo,
		admins:    deps.AdminRepo,
		lifecycle: deps.Lifecycle,
		roles:     identity.NewRoleResolver(cfg.Auth.OwnerEmail),
		hasher:    auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokenMgr:  auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		revoker:   deps.Revoker,
		metrics:   deps.Metrics,
		logger:    logger,
		now:       o.now,
	}
}

// RegisterCustomer creates an ACTIVE customer and signs them in.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*CustomerSession, error) {
	email = identity.NormalizeEmail(email)
	details := map[string]any{}
	if strings.TrimSpace(name) == "" {
		details["name"] = "required"
	}
	if !strings.Contains(email, "@") {
		details["email"] = "must be a valid email"
	}
	if len(password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicate("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	customer := &domain.CustomerAccount{
		Name:            strings.TrimSpace(name),
		Email:           email,
		PasswordHash:    hash,
		StoredStatus:    domain.AccountStatusActive,
		StatusChangedAt: s.now(),
		StatusChangedBy: domain.SystemActor,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicate("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("customer registered", zap.String("customer_id", customer.ID))
	return &CustomerSession{
		Customer:   customer,
		Token:      token,
		ExpiresAt:  exp,
		Resolution: s.lifecycle.Resolve(customer),
	}, nil
}

// LoginCustomer authenticates a customer through the lifecycle login gate.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*CustomerSession, error) {
	customer, err := s.customers.GetByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordLogin("customer", "unknown_email")
			return nil, apperrors.NewInvalidCredentials(nil)
		}
		return nil, apperrors.MapError(err)
	}

	passwordOK, err := s.hasher.Matches(customer.PasswordHash, password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	outcome, err := s.lifecycle.AuthorizeLogin(ctx, customer, passwordOK)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &CustomerSession{
		Customer:   outcome.Account,
		Token:      token,
		ExpiresAt:  exp,
		Resolution: outcome.Resolution,
		Advisory:   outcome.Advisory,
	}, nil
}

// LoginAdmin authenticates an admin. Admins have no lockout; a Disabled
// status is the only state check.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*AdminSession, error) {
	admin, err := s.admins.GetByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordLogin("admin", "unknown_email")
			return nil, apperrors.NewInvalidCredentials(nil)
		}
		return nil, apperrors.MapError(err)
	}

	ok, err := s.hasher.Matches(admin.PasswordHash, password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		s.metrics.RecordLogin("admin", "invalid_credentials")
		return nil, apperrors.NewInvalidCredentials(nil)
	}
	if admin.Status != domain.AdminStatusActive {
		s.metrics.RecordLogin("admin", "disabled")
		return nil, apperrors.NewUnauthorized("admin account disabled")
	}

	role := s.roles.Resolve(admin.Email)
	if admin.StoredRole != role {
		s.logger.Warn("refreshing stale admin role at login",
			zap.String("admin_id", admin.ID),
			zap.String("stored", string(admin.StoredRole)),
			zap.String("resolved", string(role)))
		admin.StoredRole = role
		if err := s.admins.Update(ctx, admin); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(admin.ID, domain.SubjectTypeAdmin, &role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordLogin("admin", "success")
	return &AdminSession{Admin: admin, Role: role, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes the token id until the token would have expired.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
