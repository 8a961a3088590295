package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-identity/internal/config"
	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/events"
	"github.com/spec-kit/storefront-identity/internal/identity"
	"github.com/spec-kit/storefront-identity/internal/observability"
	"github.com/spec-kit/storefront-identity/internal/repository"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

// LifecycleService enforces customer status at login, order placement and
// generic action boundaries, and applies admin-initiated transitions.
type LifecycleService struct {
	customers      repository.CustomerRepository
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	policy         identity.Policy
	maxAttempts    int
	lockout        time.Duration
	suspensionDays int
	batchSize      int
	now            func() time.Time
}

// LifecycleDependencies encapsulates collaborators of the lifecycle service.
type LifecycleDependencies struct {
	CustomerRepo repository.CustomerRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// LoginOutcome is the result of a passed login gate. Resolution is the
// status computed before the login was recorded.
type LoginOutcome struct {
	Account    *domain.CustomerAccount
	Resolution identity.Resolution
	Advisory   *identity.Advisory
}

// StatusReport is the stored and resolved view of one customer.
type StatusReport struct {
	CustomerID      string               `json:"customer_id"`
	StoredStatus    domain.AccountStatus `json:"stored_status"`
	ResolvedStatus  domain.AccountStatus `json:"resolved_status"`
	Reason          string               `json:"reason,omitempty"`
	Basis           identity.Basis       `json:"basis"`
	ChangedAt       time.Time            `json:"changed_at"`
	ChangedBy       string               `json:"changed_by,omitempty"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
	LastLoginAt     *time.Time           `json:"last_login_at,omitempty"`
	LoginAttempts   int                  `json:"login_attempts"`
}

// NewLifecycleService constructs the service.
func NewLifecycleService(cfg config.Config, deps LifecycleDependencies, opts ...Option) *LifecycleService {
	o := applyOptions(opts)
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		customers:      deps.CustomerRepo,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
		policy:         identity.Policy{InactivityDays: cfg.Lifecycle.InactivityDays},
		maxAttempts:    cfg.Lifecycle.MaxFailedAttempts,
		lockout:        cfg.Lifecycle.LockoutDuration,
		suspensionDays: cfg.Lifecycle.DefaultSuspensionDays,
		batchSize:      cfg.Worker.ReconcileBatchSize,
		now:            o.now,
	}
}

// Resolve computes the effective status of account now.
func (s *LifecycleService) Resolve(account *domain.CustomerAccount) identity.Resolution {
	return s.policy.Resolve(account, s.now())
}

// AuthorizeLogin runs the login gate. A BLOCKED account is rejected before
// the password result is considered. Failures bump the attempt counter and
// lock the account out once the limit is reached.
func (s *LifecycleService) AuthorizeLogin(ctx context.Context, account *domain.CustomerAccount, passwordOK bool) (*LoginOutcome, error) {
	now := s.now()
	resolution := s.policy.Resolve(account, now)

	if resolution.Status == domain.AccountStatusBlocked {
		s.metrics.RecordLogin("customer", "blocked")
		return nil, apperrors.NewAccountBlocked(resolution.Reason, resolution.ChangedAt)
	}

	if !passwordOK {
		return nil, s.recordFailedLogin(ctx, account, now)
	}

	if err := s.customers.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, apperrors.MapError(err)
	}
	account.LoginAttempts = 0
	loginAt := now
	account.LastLoginAt = &loginAt

	if resolution.SuspensionExpired() {
		if err := s.applyTransition(ctx, account, identity.TransitionSuspensionExpired, identity.TransitionInput{At: now}); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordLogin("customer", "success")
	return &LoginOutcome{Account: account, Resolution: resolution, Advisory: resolution.Advisory()}, nil
}

func (s *LifecycleService) recordFailedLogin(ctx context.Context, account *domain.CustomerAccount, now time.Time) error {
	attempts, err := s.customers.IncrementLoginAttempts(ctx, account.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	account.LoginAttempts = attempts

	outcome := "invalid_credentials"
	if attempts >= s.maxAttempts && identity.CanApply(account.StoredStatus, identity.TransitionLockout) {
		until := now.Add(s.lockout)
		if err := s.applyTransition(ctx, account, identity.TransitionLockout, identity.TransitionInput{Until: &until, At: now}); err != nil {
			return err
		}
		outcome = "locked_out"
		s.logger.Warn("customer locked out",
			zap.String("customer_id", account.ID),
			zap.Int("attempts", attempts),
			zap.Time("suspension_until", until))
	}
	s.metrics.RecordLogin("customer", outcome)

	remaining := s.maxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}
	return apperrors.NewInvalidCredentials(map[string]any{"remaining_attempts": remaining})
}

// AuthorizeOrder runs the order-placement gate: BLOCKED and SUSPENDED are
// rejected, INACTIVE and ACTIVE pass.
func (s *LifecycleService) AuthorizeOrder(ctx context.Context, account *domain.CustomerAccount) (identity.Resolution, error) {
	resolution, err := s.resolveAndCorrect(ctx, account)
	if err != nil {
		return resolution, err
	}
	switch resolution.Status {
	case domain.AccountStatusBlocked:
		return resolution, apperrors.NewAccountBlocked(resolution.Reason, resolution.ChangedAt)
	case domain.AccountStatusSuspended:
		return resolution, apperrors.NewAccountSuspended(resolution.Reason, resolution.SuspensionUntil)
	}
	return resolution, nil
}

// AuthorizeAction runs the generic gate: only BLOCKED is rejected. Callers
// surface Resolution.Advisory for SUSPENDED and INACTIVE accounts.
func (s *LifecycleService) AuthorizeAction(ctx context.Context, account *domain.CustomerAccount) (identity.Resolution, error) {
	resolution, err := s.resolveAndCorrect(ctx, account)
	if err != nil {
		return resolution, err
	}
	if resolution.Status == domain.AccountStatusBlocked {
		return resolution, apperrors.NewAccountBlocked(resolution.Reason, resolution.ChangedAt)
	}
	return resolution, nil
}

func (s *LifecycleService) resolveAndCorrect(ctx context.Context, account *domain.CustomerAccount) (identity.Resolution, error) {
	now := s.now()
	resolution := s.policy.Resolve(account, now)
	if resolution.SuspensionExpired() {
		if err := s.applyTransition(ctx, account, identity.TransitionSuspensionExpired, identity.TransitionInput{At: now}); err != nil {
			return resolution, err
		}
	}
	return resolution, nil
}

// Block stores BLOCKED with a mandatory reason.
func (s *LifecycleService) Block(ctx context.Context, actorEmail, customerID, reason string) (*domain.CustomerAccount, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason is required", map[string]any{"reason": "required"})
	}
	return s.adminTransition(ctx, customerID, identity.TransitionBlock, identity.TransitionInput{Actor: actorEmail, Reason: reason})
}

// Suspend stores SUSPENDED until now + days. A nil days uses the configured
// default.
func (s *LifecycleService) Suspend(ctx context.Context, actorEmail, customerID, reason string, days *int) (*domain.CustomerAccount, error) {
	details := map[string]any{}
	if strings.TrimSpace(reason) == "" {
		details["reason"] = "required"
	}
	n := s.suspensionDays
	if days != nil {
		n = *days
	}
	if n <= 0 || n > config.MaxSuspensionDays {
		details["days"] = fmt.Sprintf("must be between 1 and %d", config.MaxSuspensionDays)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid suspension request", details)
	}

	until := s.now().Add(time.Duration(n) * 24 * time.Hour)
	return s.adminTransition(ctx, customerID, identity.TransitionSuspend, identity.TransitionInput{Actor: actorEmail, Reason: reason, Until: &until})
}

// Unblock resets the account to ACTIVE.
func (s *LifecycleService) Unblock(ctx context.Context, actorEmail, customerID string) (*domain.CustomerAccount, error) {
	return s.adminTransition(ctx, customerID, identity.TransitionUnblock, identity.TransitionInput{Actor: actorEmail})
}

// Activate resets the account to ACTIVE.
func (s *LifecycleService) Activate(ctx context.Context, actorEmail, customerID string) (*domain.CustomerAccount, error) {
	return s.adminTransition(ctx, customerID, identity.TransitionActivate, identity.TransitionInput{Actor: actorEmail})
}

func (s *LifecycleService) adminTransition(ctx context.Context, customerID string, t identity.Transition, in identity.TransitionInput) (*domain.CustomerAccount, error) {
	account, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	in.At = s.now()
	if err := s.applyTransition(ctx, account, t, in); err != nil {
		return nil, err
	}
	return account, nil
}

// Inspect returns the stored and resolved status of a customer.
func (s *LifecycleService) Inspect(ctx context.Context, customerID string) (*StatusReport, error) {
	account, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resolution := s.Resolve(account)
	return &StatusReport{
		CustomerID:      account.ID,
		StoredStatus:    account.StoredStatus,
		ResolvedStatus:  resolution.Status,
		Reason:          resolution.Reason,
		Basis:           resolution.Basis,
		ChangedAt:       resolution.ChangedAt,
		ChangedBy:       resolution.ChangedBy,
		SuspensionUntil: resolution.SuspensionUntil,
		LastLoginAt:     account.LastLoginAt,
		LoginAttempts:   account.LoginAttempts,
	}, nil
}

// ReconcileExpiredSuspensions writes back one batch of suspensions whose end
// has passed and returns how many were corrected. Requests never depend on
// it having run.
func (s *LifecycleService) ReconcileExpiredSuspensions(ctx context.Context) (int, error) {
	now := s.now()
	accounts, err := s.customers.ListExpiredSuspensions(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	corrected := 0
	var errs []error
	for _, account := range accounts {
		resolution := s.policy.Resolve(account, now)
		if !resolution.SuspensionExpired() {
			continue
		}
		if err := s.applyTransition(ctx, account, identity.TransitionSuspensionExpired, identity.TransitionInput{At: now}); err != nil {
			errs = append(errs, err)
			continue
		}
		corrected++
	}
	return corrected, errors.Join(errs...)
}

func (s *LifecycleService) load(ctx context.Context, customerID string) (*domain.CustomerAccount, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, apperrors.NewNotFound("customer", map[string]any{"id": customerID})
	}
	account, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if apperrors.ToDomainError(err).Code == apperrors.CodeNotFound {
			return nil, apperrors.NewNotFound("customer", map[string]any{"id": customerID})
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// applyTransition mutates account through the transition table, persists the
// status fields and announces the change.
func (s *LifecycleService) applyTransition(ctx context.Context, account *domain.CustomerAccount, t identity.Transition, in identity.TransitionInput) error {
	from, err := identity.Apply(account, t, in)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"transition": string(t)})
	}
	if err := s.customers.UpdateStatus(ctx, account); err != nil {
		return apperrors.MapError(err)
	}

	s.metrics.RecordTransition(string(t), string(account.StoredStatus))
	s.logger.Info("customer status changed",
		zap.String("customer_id", account.ID),
		zap.String("transition", string(t)),
		zap.String("from", string(from)),
		zap.String("to", string(account.StoredStatus)),
		zap.String("by", account.StatusChangedBy))

	if s.dispatcher != nil {
		event := events.NewEvent(events.EventAccountStatusChanged, account.ID, account.StatusChangedBy, in.At,
			events.AccountStatusChangedPayload{
				Transition:      string(t),
				OldStatus:       from,
				NewStatus:       account.StoredStatus,
				Reason:          account.Reason(),
				SuspensionUntil: account.SuspensionUntil,
			})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish status change failed", zap.String("customer_id", account.ID), zap.Error(err))
		}
	}
	return nil
}
