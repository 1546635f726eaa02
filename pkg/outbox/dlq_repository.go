package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// MoveToDLQ records the failure and marks the source row published so the dispatcher stops picking it up.
// A nil tx runs both writes in their own transaction.
func (r *DLQRepository) MoveToDLQ(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, at time.Time) error {
	var message *string
	if cause != nil {
		msg := truncate(cause.Error())
		message = &msg
	}
	move := func(tx *gorm.DB) error {
		entry := models.OutboxDLQ{
			EventID:       event.ID,
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			Payload:       event.Payload,
			ErrorReason:   reason,
			ErrorMessage:  message,
			AttemptCount:  event.AttemptCount,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.OutboxEvent{}).
			Where("id = ?", event.ID).
			Update("published_at", at).Error
	}
	if tx != nil {
		return move(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(move)
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var dlq models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&dlq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dlq, nil
}
