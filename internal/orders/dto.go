package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// PaymentState is what the payment bridge needs to know about an order.
type PaymentState struct {
	OrderID         uuid.UUID
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	Amount          decimal.Decimal
	Method          enums.PaymentMethod
	Paid            bool
	PaymentIntentID *string
}

// DeliveryResult reports a completed delivery and whether it settled a cash order.
type DeliveryResult struct {
	Delivery      *models.Delivery
	Order         *models.Order
	CashCollected bool
}

// OrderDTO is the buyer-facing shape of an order.
type OrderDTO struct {
	ID            uuid.UUID                `json:"id"`
	BuyerID       uuid.UUID                `json:"buyerId"`
	SellerID      uuid.UUID                `json:"sellerId"`
	Total         decimal.Decimal          `json:"total"`
	PaymentMethod enums.PaymentMethod      `json:"paymentMethod"`
	PaymentStatus enums.OrderPaymentStatus `json:"paymentStatus"`
	PaidAt        *time.Time               `json:"paidAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

type DeliveryDTO struct {
	ID          uuid.UUID            `json:"id"`
	OrderID     uuid.UUID            `json:"orderId"`
	DriverID    uuid.UUID            `json:"driverId"`
	Status      enums.DeliveryStatus `json:"status"`
	DeliveredAt *time.Time           `json:"deliveredAt,omitempty"`
}

// DeliveryResultDTO is returned to the driver after completing a drop-off.
type DeliveryResultDTO struct {
	Delivery      *DeliveryDTO `json:"delivery"`
	Order         *OrderDTO    `json:"order"`
	CashCollected bool         `json:"cashCollected"`
}

func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	return &OrderDTO{
		ID:            m.ID,
		BuyerID:       m.BuyerID,
		SellerID:      m.SellerID,
		Total:         m.Total,
		PaymentMethod: m.PaymentMethod,
		PaymentStatus: m.PaymentStatus,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func DeliveryFromModel(m *models.Delivery) *DeliveryDTO {
	if m == nil {
		return nil
	}
	return &DeliveryDTO{
		ID:          m.ID,
		OrderID:     m.OrderID,
		DriverID:    m.DriverID,
		Status:      m.Status,
		DeliveredAt: m.DeliveredAt,
	}
}

// ToDTO maps the result for the API.
func (r *DeliveryResult) ToDTO() *DeliveryResultDTO {
	if r == nil {
		return nil
	}
	return &DeliveryResultDTO{
		Delivery:      DeliveryFromModel(r.Delivery),
		Order:         FromModel(r.Order),
		CashCollected: r.CashCollected,
	}
}
