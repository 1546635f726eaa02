package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// Order is a direct-purchase checkout between a buyer and a seller.
type Order struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID                `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID        uuid.UUID                `gorm:"column:seller_id;type:uuid;not null"`
	Total           decimal.Decimal          `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod   enums.PaymentMethod      `gorm:"column:payment_method;not null"`
	PaymentStatus   enums.OrderPaymentStatus `gorm:"column:payment_status;not null;default:unpaid"`
	PaymentIntentID *string                  `gorm:"column:payment_intent_id"`
	PaidAt          *time.Time               `gorm:"column:paid_at"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Delivery tracks a driver moving an order to the buyer.
type Delivery struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	DriverID    uuid.UUID            `gorm:"column:driver_id;type:uuid;not null"`
	Status      enums.DeliveryStatus `gorm:"column:status;not null;default:assigned"`
	DeliveredAt *time.Time           `gorm:"column:delivered_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Delivery) TableName() string { return "deliveries" }

func (d *Delivery) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
