package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
)

const notificationConsumerName = "notification-writer"

type processedMarker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, id string) (bool, error)
	Release(ctx context.Context, consumer, id string) error
}

type messageSource interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns notification_requested events into notification rows.
type Consumer struct {
	repo         Repository
	subscription messageSource
	idempotency  processedMarker
	logg         *logger.Logger
}

func NewConsumer(repo Repository, subscription messageSource, manager processedMarker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, subscription: subscription, idempotency: manager, logg: logg}, nil
}

// Run receives until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed messages are acked so they do not loop.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Debug(logCtx, "skipping non-notification event")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventID, err := envelope.ParseEventID()
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return true
	}
	notice := Notice{UserID: payload.UserID, Type: payload.Type, Message: payload.Message, RelatedID: payload.RelatedID}
	if err := notice.validate(); err != nil {
		c.logg.Warn(logCtx, "dropping invalid notification: "+err.Error())
		return true
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumerName, eventID.String())
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	if err := c.repo.Create(ctx, noticeToModel(notice)); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Release(ctx, notificationConsumerName, eventID.String())
		return false
	}
	c.logg.Info(logCtx, "notification stored")
	return true
}
