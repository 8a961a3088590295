package dto

import (
	"time"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// BlockRequest payload for PUT /users/{id}/block.
type BlockRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SuspendRequest payload for PUT /users/{id}/suspend. Days defaults server-side.
type SuspendRequest struct {
	Reason string `json:"reason" validate:"required"`
	Days   *int   `json:"days" validate:"omitempty,gt=0,lte=3650"`
}

// StoredStatusView reports the stored status after an admin transition.
type StoredStatusView struct {
	ID              string               `json:"id"`
	StoredStatus    domain.AccountStatus `json:"stored_status"`
	Reason          string               `json:"reason,omitempty"`
	ChangedAt       time.Time            `json:"changed_at"`
	ChangedBy       string               `json:"changed_by"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
}

// NewStoredStatusView renders the stored status fields of account.
func NewStoredStatusView(account *domain.CustomerAccount) StoredStatusView {
	return StoredStatusView{
		ID:              account.ID,
		StoredStatus:    account.StoredStatus,
		Reason:          account.Reason(),
		ChangedAt:       account.StatusChangedAt,
		ChangedBy:       account.StatusChangedBy,
		SuspensionUntil: account.SuspensionUntil,
	}
}
