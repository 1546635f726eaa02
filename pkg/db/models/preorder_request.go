package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// PreOrderRequest is a seller's request for material that a supplier quotes, and the seller then pays for.
type PreOrderRequest struct {
	ID                    uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	SellerID              uuid.UUID                    `gorm:"column:seller_id;type:uuid;not null;index"`
	SupplierID            *uuid.UUID                   `gorm:"column:supplier_id;type:uuid;index"`
	MaterialName          string                       `gorm:"column:material_name;not null"`
	Quantity              string                       `gorm:"column:quantity;not null"`
	ContactEmail          string                       `gorm:"column:contact_email;not null"`
	ContactPhone          string                       `gorm:"column:contact_phone;not null"`
	PreferredDeliveryDate time.Time                    `gorm:"column:preferred_delivery_date;not null"`
	PaymentOption         enums.PaymentOption          `gorm:"column:payment_option;not null"`
	SupplierNotes         *string                      `gorm:"column:supplier_notes"`
	Response              SupplierResponse             `gorm:"embedded;embeddedPrefix:response_"`
	PaymentDueDate        *time.Time                   `gorm:"column:payment_due_date"`
	Paid                  bool                         `gorm:"column:paid;not null;default:false"`
	PaymentDate           *time.Time                   `gorm:"column:payment_date"`
	PaymentIntentID       *string                      `gorm:"column:payment_intent_id"`
	DeliveryStatus        enums.PreOrderDeliveryStatus `gorm:"column:delivery_status;not null;default:pending"`
	Status                enums.PreOrderStatus         `gorm:"column:status;not null;default:pending;index"`
	CreatedAt             time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// SupplierResponse is the supplier's decision on a request.
type SupplierResponse struct {
	Accepted    *bool            `gorm:"column:accepted"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	RespondedAt *time.Time       `gorm:"column:responded_at"`
}

func (PreOrderRequest) TableName() string { return "preorder_requests" }

func (p *PreOrderRequest) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
