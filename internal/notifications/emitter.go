package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
)

// Notice is a message for one user about one entity.
type Notice struct {
	UserID    uuid.UUID
	Type      enums.NotificationType
	Message   string
	RelatedID *uuid.UUID
	Actor     *outbox.ActorRef
}

func (n Notice) validate() error {
	if n.UserID == uuid.Nil {
		return errors.New("notification recipient required")
	}
	if !n.Type.IsValid() {
		return errors.New("notification type invalid")
	}
	if strings.TrimSpace(n.Message) == "" {
		return errors.New("notification message required")
	}
	return nil
}

// Emitter delivers notices without ever failing the caller. Call it only after the triggering write committed.
type Emitter interface {
	Notify(ctx context.Context, notice Notice)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OutboxEmitter queues a notification_requested event; the consumer materializes the row.
type OutboxEmitter struct {
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

func NewOutboxEmitter(tx txRunner, publisher outboxPublisher, logg *logger.Logger) (*OutboxEmitter, error) {
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if publisher == nil {
		return nil, errors.New("outbox publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &OutboxEmitter{tx: tx, outbox: publisher, logg: logg}, nil
}

func (e *OutboxEmitter) Notify(ctx context.Context, notice Notice) {
	logCtx := noticeLogContext(ctx, e.logg, notice)
	if err := notice.validate(); err != nil {
		e.logg.Warn(logCtx, "notification dropped: "+err.Error())
		return
	}
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   notice.UserID,
			Actor:         notice.Actor,
			Data: payloads.NotificationRequestedEvent{
				UserID:    notice.UserID,
				Type:      notice.Type,
				Message:   notice.Message,
				RelatedID: notice.RelatedID,
			},
		})
	})
	if err != nil {
		e.logg.Error(logCtx, "failed to queue notification", err)
	}
}

// DirectEmitter writes the notification row inline.
type DirectEmitter struct {
	repo Repository
	logg *logger.Logger
}

func NewDirectEmitter(repo Repository, logg *logger.Logger) (*DirectEmitter, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &DirectEmitter{repo: repo, logg: logg}, nil
}

func (e *DirectEmitter) Notify(ctx context.Context, notice Notice) {
	logCtx := noticeLogContext(ctx, e.logg, notice)
	if err := notice.validate(); err != nil {
		e.logg.Warn(logCtx, "notification dropped: "+err.Error())
		return
	}
	if err := e.repo.Create(ctx, noticeToModel(notice)); err != nil {
		e.logg.Error(logCtx, "failed to store notification", err)
	}
}

func noticeToModel(notice Notice) *models.Notification {
	return &models.Notification{
		UserID:    notice.UserID,
		Type:      notice.Type,
		Message:   strings.TrimSpace(notice.Message),
		RelatedID: notice.RelatedID,
	}
}

func noticeLogContext(ctx context.Context, logg *logger.Logger, notice Notice) context.Context {
	fields := map[string]any{
		"recipient_id":      notice.UserID.String(),
		"notification_type": notice.Type,
	}
	if notice.RelatedID != nil {
		fields["related_id"] = notice.RelatedID.String()
	}
	return logg.WithFields(ctx, fields)
}
