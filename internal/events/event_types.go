package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// EventType enumerates supported event identifiers. Values double as AMQP
// routing keys.
type EventType string

const (
	EventAccountStatusChanged EventType = "account.status_changed"
	EventAdminCreated         EventType = "admin.created"
	EventAdminUpdated         EventType = "admin.updated"
	EventAdminDeleted         EventType = "admin.deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a fresh event ID.
func NewEvent(eventType EventType, subjectID, actor string, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// AccountStatusChangedPayload describes a persisted customer status transition.
type AccountStatusChangedPayload struct {
	Transition      string               `json:"transition"`
	OldStatus       domain.AccountStatus `json:"old_status"`
	NewStatus       domain.AccountStatus `json:"new_status"`
	Reason          string               `json:"reason,omitempty"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
}

// AdminChangedPayload describes an admin account after the change.
type AdminChangedPayload struct {
	Email  string             `json:"email"`
	Role   domain.AdminRole   `json:"role"`
	Status domain.AdminStatus `json:"status"`
}
