package dto

import (
	"time"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// CreateAdminRequest payload. Role is accepted and ignored; roles are
// always derived from the email.
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Status   string `json:"status" validate:"omitempty,oneof=Active Disabled"`
	Role     string `json:"role"`
}

// UpdateAdminRequest payload; omitted fields stay unchanged.
type UpdateAdminRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Status   *string `json:"status" validate:"omitempty,oneof=Active Disabled"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// AdminView is the public shape of an admin.
type AdminView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      domain.AdminRole   `json:"role"`
	Status    domain.AdminStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewAdminView renders admin.
func NewAdminView(admin *domain.AdminAccount) AdminView {
	return AdminView{
		ID:        admin.ID,
		Name:      admin.Name,
		Email:     admin.Email,
		Role:      admin.StoredRole,
		Status:    admin.Status,
		CreatedAt: admin.CreatedAt,
		UpdatedAt: admin.UpdatedAt,
	}
}

// AdminLoginResponse answers POST /auth/admin/login.
type AdminLoginResponse struct {
	AuthResponse
	Role  domain.AdminRole `json:"role"`
	Admin AdminView        `json:"admin"`
}
