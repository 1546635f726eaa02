package enums

import "fmt"

// OrderPaymentStatus maps to the order_payment_status enum in Postgres.
type OrderPaymentStatus string

const (
	OrderPaymentUnpaid OrderPaymentStatus = "unpaid"
	OrderPaymentPaid   OrderPaymentStatus = "paid"
)

func (s OrderPaymentStatus) IsValid() bool {
	return s == OrderPaymentUnpaid || s == OrderPaymentPaid
}

// PaymentMethod is how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// ParsePaymentMethod converts raw input into PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch PaymentMethod(value) {
	case PaymentMethodCard, PaymentMethodCash:
		return PaymentMethod(value), nil
	default:
		return "", fmt.Errorf("invalid payment method %q", value)
	}
}

// DeliveryStatus maps to the delivery_status enum in Postgres.
type DeliveryStatus string

const (
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusAssigned, DeliveryStatusInTransit, DeliveryStatusDelivered:
		return true
	default:
		return false
	}
}

// PaymentTargetKind names the entity a gateway payment settles.
type PaymentTargetKind string

const (
	PaymentTargetPreOrder PaymentTargetKind = "preorder"
	PaymentTargetOrder    PaymentTargetKind = "order"
)

// ParsePaymentTargetKind converts raw input into PaymentTargetKind.
func ParsePaymentTargetKind(value string) (PaymentTargetKind, error) {
	switch PaymentTargetKind(value) {
	case PaymentTargetPreOrder, PaymentTargetOrder:
		return PaymentTargetKind(value), nil
	default:
		return "", fmt.Errorf("invalid payment target %q", value)
	}
}
