package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// Repository persists orders and their deliveries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
	FindDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string, at time.Time) (int64, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, intentID *string, at time.Time) (int64, error)
	CompleteDelivery(ctx context.Context, deliveryID, driverID uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repository) FindDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&delivery).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

// AttachPaymentIntent records the gateway intent on an unpaid card order.
func (r *repository) AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Where("payment_method = ?", enums.PaymentMethodCard).
		Where("payment_status = ?", enums.OrderPaymentUnpaid).
		Updates(map[string]any{
			"payment_intent_id": intentID,
			"updated_at":        at,
		})
	return result.RowsAffected, result.Error
}

// MarkPaid flips payment_status from unpaid to paid. Zero rows means the order was already paid.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, intentID *string, at time.Time) (int64, error) {
	updates := map[string]any{
		"payment_status": enums.OrderPaymentPaid,
		"paid_at":        at,
		"updated_at":     at,
	}
	if intentID != nil {
		updates["payment_intent_id"] = *intentID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Where("payment_status = ?", enums.OrderPaymentUnpaid).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CompleteDelivery marks an open delivery assigned to driverID as delivered.
func (r *repository) CompleteDelivery(ctx context.Context, deliveryID, driverID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND driver_id = ?", deliveryID, driverID).
		Where("status IN ?", []enums.DeliveryStatus{enums.DeliveryStatusAssigned, enums.DeliveryStatusInTransit}).
		Updates(map[string]any{
			"status":       enums.DeliveryStatusDelivered,
			"delivered_at": at,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}
