package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-identity/internal/events"
)

// NotificationService relays identity events to the external notification
// collaborator. Without a forwarder events are only logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	forward    events.EventHandler
	logger     *zap.Logger
}

// NewNotificationService creates the service. forward may be nil.
func NewNotificationService(dispatcher events.Dispatcher, forward events.EventHandler, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		forward:    forward,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountStatusChanged, n.handleAccountStatusChanged)
	for _, t := range []events.EventType{events.EventAdminCreated, events.EventAdminUpdated, events.EventAdminDeleted} {
		n.dispatcher.Subscribe(t, n.handleAdminChanged)
	}
}

func (n *NotificationService) handleAccountStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountStatusChanged",
		zap.String("customer_id", event.SubjectID),
		zap.String("actor", event.Actor),
		zap.Any("payload", event.Payload))
	return n.relay(ctx, event)
}

func (n *NotificationService) handleAdminChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("AdminChanged",
		zap.String("event_type", string(event.Type)),
		zap.String("admin_id", event.SubjectID),
		zap.String("actor", event.Actor))
	return n.relay(ctx, event)
}

func (n *NotificationService) relay(ctx context.Context, event events.Event) error {
	if n.forward == nil {
		return nil
	}
	return n.forward(ctx, event)
}
