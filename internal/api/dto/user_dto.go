package dto

import (
	"time"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
)

// CustomerRegisterRequest payload for new customers.
type CustomerRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest payload shared by customer and admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CustomerView is the public shape of a customer with its resolved status.
type CustomerView struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Status          domain.AccountStatus `json:"status"`
	Reason          string               `json:"reason,omitempty"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
	LastLoginAt     *time.Time           `json:"last_login_at,omitempty"`
}

// NewCustomerView renders account with the given resolution.
func NewCustomerView(account *domain.CustomerAccount, res identity.Resolution) CustomerView {
	return CustomerView{
		ID:              account.ID,
		Name:            account.Name,
		Email:           account.Email,
		Status:          res.Status,
		Reason:          res.Reason,
		SuspensionUntil: res.SuspensionUntil,
		LastLoginAt:     account.LastLoginAt,
	}
}

// CustomerLoginResponse answers POST /auth/login. Warning is set for
// SUSPENDED and INACTIVE accounts.
type CustomerLoginResponse struct {
	AuthResponse
	Status  domain.AccountStatus `json:"status"`
	Warning *identity.Advisory   `json:"warning,omitempty"`
	User    CustomerView         `json:"user"`
}

// AccountStatusResponse answers GET /account/status.
type AccountStatusResponse struct {
	Status          domain.AccountStatus `json:"status"`
	Reason          string               `json:"reason,omitempty"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
	Warning         *identity.Advisory   `json:"warning,omitempty"`
}

// NewAccountStatusResponse renders a resolution.
func NewAccountStatusResponse(res identity.Resolution) AccountStatusResponse {
	return AccountStatusResponse{
		Status:          res.Status,
		Reason:          res.Reason,
		SuspensionUntil: res.SuspensionUntil,
		Warning:         res.Advisory(),
	}
}
