package events

import (
	"context"

	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// UserEventPublisher publishes user lifecycle events
type UserEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewUserEventPublisher creates a new user event publisher
func NewUserEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *UserEventPublisher {
	return &UserEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishUserCreated publishes a user created event
func (p *UserEventPublisher) PublishUserCreated(ctx context.Context, user *domain.User) {
	messaging.Notify(ctx, p.publisher, p.logger, messaging.EventUserCreated, newUserEvent(ctx, user))
}

// PublishUserUpdated publishes a user updated event
func (p *UserEventPublisher) PublishUserUpdated(ctx context.Context, user *domain.User) {
	messaging.Notify(ctx, p.publisher, p.logger, messaging.EventUserUpdated, newUserEvent(ctx, user))
}

// PublishUserDeleted publishes a user deleted event
func (p *UserEventPublisher) PublishUserDeleted(ctx context.Context, user *domain.User) {
	messaging.Notify(ctx, p.publisher, p.logger, messaging.EventUserDeleted, newUserEvent(ctx, user))
}

func newUserEvent(ctx context.Context, user *domain.User) messaging.UserEvent {
	return messaging.UserEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		CompanyID: user.CompanyID,
		ActorID:   tenant.UserID(ctx),
	}
}
