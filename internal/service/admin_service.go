package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-identity/internal/auth"
	"github.com/spec-kit/storefront-identity/internal/config"
	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/events"
	"github.com/spec-kit/storefront-identity/internal/identity"
	"github.com/spec-kit/storefront-identity/internal/repository"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

const minPasswordLength = 8

// AdminService governs admin-account mutations and keeps the owner account
// as the only MAIN_ADMIN.
type AdminService struct {
	admins     repository.AdminRepository
	roles      identity.RoleResolver
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AdminDependencies encapsulates collaborators of the admin service.
type AdminDependencies struct {
	AdminRepo  repository.AdminRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AdminActor is the admin calling a management operation together with the
// role pinned in its access token at login.
type AdminActor struct {
	Account   *domain.AdminAccount
	TokenRole *domain.AdminRole
}

// CreateAdminInput holds a create request. Role is accepted for request
// compatibility and ignored.
type CreateAdminInput struct {
	Name     string
	Email    string
	Password string
	Status   domain.AdminStatus
	Role     string
}

// UpdateAdminInput holds a partial update; nil fields are left unchanged.
type UpdateAdminInput struct {
	Name     *string
	Email    *string
	Status   *domain.AdminStatus
	Password *string
}

// NewAdminService constructs the service.
func NewAdminService(cfg config.Config, deps AdminDependencies, opts ...Option) *AdminService {
	o := applyOptions(opts)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		admins:     deps.AdminRepo,
		roles:      identity.NewRoleResolver(cfg.Auth.OwnerEmail),
		hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        o.now,
	}
}

// Roles returns the resolver bound to the configured owner email.
func (s *AdminService) Roles() identity.RoleResolver {
	return s.roles
}

// authorize admits only an active owner whose token was issued as MAIN_ADMIN.
func (s *AdminService) authorize(actor AdminActor) error {
	if actor.Account == nil || actor.Account.Status != domain.AdminStatusActive {
		return apperrors.NewForbidden()
	}
	if actor.TokenRole == nil || *actor.TokenRole != domain.AdminRoleMain {
		return apperrors.NewForbidden()
	}
	if s.roles.Resolve(actor.Account.Email) != domain.AdminRoleMain {
		return apperrors.NewForbidden()
	}
	return nil
}

// Create adds an admin. The role always comes from the submitted email.
func (s *AdminService) Create(ctx context.Context, actor AdminActor, in CreateAdminInput) (*domain.AdminAccount, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	email := identity.NormalizeEmail(in.Email)
	status := in.Status
	if status == "" {
		status = domain.AdminStatusActive
	}

	details := map[string]any{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "required"
	}
	if !strings.Contains(email, "@") {
		details["email"] = "must be a valid email"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if !status.Valid() {
		details["status"] = "must be Active or Disabled"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid admin", details)
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	admin := &domain.AdminAccount{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		StoredRole:   s.roles.Resolve(email),
		Status:       status,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, s.mapWriteError(err, email)
	}

	s.logger.Info("admin created",
		zap.String("admin_id", admin.ID),
		zap.String("role", string(admin.StoredRole)),
		zap.String("by", actor.Account.Email))
	s.publish(ctx, events.EventAdminCreated, admin, actor.Account.Email)
	return admin, nil
}

// Update changes name, email, status or password. The owner's email cannot
// change; that check runs before the caller's role is considered.
func (s *AdminService) Update(ctx context.Context, actor AdminActor, id string, in UpdateAdminInput) (*domain.AdminAccount, error) {
	target, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var newEmail string
	if in.Email != nil {
		newEmail = identity.NormalizeEmail(*in.Email)
	}
	if s.roles.IsOwner(target.Email) && in.Email != nil && newEmail != identity.NormalizeEmail(target.Email) {
		return nil, apperrors.NewProtectedEntity("owner admin email cannot be changed", map[string]any{"id": target.ID})
	}

	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	details := map[string]any{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		details["name"] = "must not be empty"
	}
	if in.Email != nil && !strings.Contains(newEmail, "@") {
		details["email"] = "must be a valid email"
	}
	if in.Status != nil && !in.Status.Valid() {
		details["status"] = "must be Active or Disabled"
	}
	if in.Password != nil && len(*in.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid admin update", details)
	}

	if in.Name != nil {
		target.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil && newEmail != identity.NormalizeEmail(target.Email) {
		if err := s.ensureEmailFree(ctx, newEmail, target.ID); err != nil {
			return nil, err
		}
		target.Email = newEmail
	}
	if in.Status != nil {
		target.Status = *in.Status
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		target.PasswordHash = hash
	}
	target.StoredRole = s.roles.Resolve(target.Email)

	if err := s.admins.Update(ctx, target); err != nil {
		return nil, s.mapWriteError(err, target.Email)
	}

	s.logger.Info("admin updated", zap.String("admin_id", target.ID), zap.String("by", actor.Account.Email))
	s.publish(ctx, events.EventAdminUpdated, target, actor.Account.Email)
	return target, nil
}

// Delete removes an admin. Deleting the owner is always rejected, whatever
// the caller's role.
func (s *AdminService) Delete(ctx context.Context, actor AdminActor, id string) error {
	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if s.roles.IsOwner(target.Email) {
		return apperrors.NewProtectedEntity("owner admin cannot be deleted", map[string]any{"id": target.ID})
	}
	if err := s.authorize(actor); err != nil {
		return err
	}

	if err := s.admins.Delete(ctx, target.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("admin", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	s.logger.Info("admin deleted", zap.String("admin_id", target.ID), zap.String("by", actor.Account.Email))
	s.publish(ctx, events.EventAdminDeleted, target, actor.Account.Email)
	return nil
}

// List returns all admins with roles re-derived from their emails.
func (s *AdminService) List(ctx context.Context, actor AdminActor) ([]*domain.AdminAccount, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, admin := range admins {
		admin.StoredRole = s.roles.Resolve(admin.Email)
	}
	return admins, nil
}

// Get returns one admin with its role re-derived.
func (s *AdminService) Get(ctx context.Context, actor AdminActor, id string) (*domain.AdminAccount, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	admin, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	admin.StoredRole = s.roles.Resolve(admin.Email)
	return admin, nil
}

// EnsureOwner creates the owner account when missing (only if a bootstrap
// password is configured) and rewrites any stale stored role.
func (s *AdminService) EnsureOwner(ctx context.Context, name, password string) error {
	ownerEmail := s.roles.OwnerEmail()
	_, err := s.admins.GetByEmail(ctx, ownerEmail)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		if password == "" {
			s.logger.Warn("owner admin missing and OWNER_BOOTSTRAP_PASSWORD empty; skipping bootstrap",
				zap.String("owner_email", ownerEmail))
			break
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		owner := &domain.AdminAccount{
			Name:         strings.TrimSpace(name),
			Email:        ownerEmail,
			PasswordHash: hash,
			StoredRole:   domain.AdminRoleMain,
			Status:       domain.AdminStatusActive,
		}
		if owner.Name == "" {
			owner.Name = "Owner"
		}
		if err := s.admins.Create(ctx, owner); err != nil {
			return err
		}
		s.logger.Info("owner admin created", zap.String("admin_id", owner.ID))
		s.publish(ctx, events.EventAdminCreated, owner, domain.SystemActor)
	default:
		return err
	}

	admins, err := s.admins.List(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		role := s.roles.Resolve(admin.Email)
		if admin.StoredRole == role {
			continue
		}
		s.logger.Warn("refreshing stale admin role",
			zap.String("admin_id", admin.ID),
			zap.String("stored", string(admin.StoredRole)),
			zap.String("resolved", string(role)))
		admin.StoredRole = role
		if err := s.admins.Update(ctx, admin); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdminService) load(ctx context.Context, id string) (*domain.AdminAccount, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("admin", map[string]any{"id": id})
	}
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return admin, nil
}

func (s *AdminService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.admins.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != exceptID:
		return apperrors.NewDuplicate("admin email already exists", map[string]any{"email": email})
	case err == nil, errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return apperrors.MapError(err)
	}
}

func (s *AdminService) mapWriteError(err error, email string) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return apperrors.NewDuplicate("admin email already exists", map[string]any{"email": email})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("admin", nil)
	}
	return apperrors.MapError(err)
}

func (s *AdminService) publish(ctx context.Context, eventType events.EventType, admin *domain.AdminAccount, actor string) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, admin.ID, actor, s.now(), events.AdminChangedPayload{
		Email:  admin.Email,
		Role:   s.roles.Resolve(admin.Email),
		Status: admin.Status,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish admin event failed", zap.String("admin_id", admin.ID), zap.Error(err))
	}
}
