package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// PreOrderSubmittedEvent announces a new pending request to supplier-facing consumers.
type PreOrderSubmittedEvent struct {
	PreOrderID    uuid.UUID           `json:"preorder_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	MaterialName  string              `json:"material_name"`
	Quantity      string              `json:"quantity"`
	PaymentOption enums.PaymentOption `json:"payment_option"`
}

// PreOrderDecidedEvent is emitted when a supplier accepts or rejects a request.
type PreOrderDecidedEvent struct {
	PreOrderID uuid.UUID              `json:"preorder_id"`
	SellerID   uuid.UUID              `json:"seller_id"`
	SupplierID uuid.UUID              `json:"supplier_id"`
	Decision   enums.PreOrderDecision `json:"decision"`
	Status     enums.PreOrderStatus   `json:"status"`
	Price      *decimal.Decimal       `json:"price,omitempty"`
}

// PreOrderPaidEvent is emitted once per request when payment lands.
type PreOrderPaidEvent struct {
	PreOrderID      uuid.UUID       `json:"preorder_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	SupplierID      uuid.UUID       `json:"supplier_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID *string         `json:"payment_intent_id,omitempty"`
	PaidAt          time.Time       `json:"paid_at"`
}

// PreOrderDeliveredEvent is emitted when the supplier confirms delivery.
type PreOrderDeliveredEvent struct {
	PreOrderID  uuid.UUID `json:"preorder_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	Paid        bool      `json:"paid"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// PreOrderCancelledEvent is emitted when a seller withdraws an unpaid request.
type PreOrderCancelledEvent struct {
	PreOrderID     uuid.UUID            `json:"preorder_id"`
	SellerID       uuid.UUID            `json:"seller_id"`
	PreviousStatus enums.PreOrderStatus `json:"previous_status"`
	CancelledAt    time.Time            `json:"cancelled_at"`
}

// PreOrdersOverdueEvent summarizes one overdue sweep.
type PreOrdersOverdueEvent struct {
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}

// OrderPaidEvent is emitted when a gateway payment settles an order.
type OrderPaidEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"payment_intent_id"`
	PaidAt          time.Time       `json:"paid_at"`
}

// CashCollectedEvent is emitted when a driver completes a cash delivery.
type CashCollectedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	DeliveryID  uuid.UUID       `json:"delivery_id"`
	DriverID    uuid.UUID       `json:"driver_id"`
	Amount      decimal.Decimal `json:"amount"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NotificationRequestedEvent asks the notification consumer to store a message for a user.
type NotificationRequestedEvent struct {
	UserID    uuid.UUID              `json:"user_id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	RelatedID *uuid.UUID             `json:"related_id,omitempty"`
}
