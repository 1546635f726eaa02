package enums

import "fmt"

// PreOrderStatus maps to the preorder_status enum in Postgres.
type PreOrderStatus string

const (
	PreOrderStatusPending   PreOrderStatus = "pending"
	PreOrderStatusAccepted  PreOrderStatus = "accepted"
	PreOrderStatusRejected  PreOrderStatus = "rejected"
	PreOrderStatusPaid      PreOrderStatus = "paid"
	PreOrderStatusOverdue   PreOrderStatus = "overdue"
	PreOrderStatusCancelled PreOrderStatus = "cancelled"
	PreOrderStatusDelivered PreOrderStatus = "delivered"
)

var validPreOrderStatuses = []PreOrderStatus{
	PreOrderStatusPending,
	PreOrderStatusAccepted,
	PreOrderStatusRejected,
	PreOrderStatusPaid,
	PreOrderStatusOverdue,
	PreOrderStatusCancelled,
	PreOrderStatusDelivered,
}

// IsValid reports whether the value matches the canonical preorder_status enum.
func (s PreOrderStatus) IsValid() bool {
	for _, candidate := range validPreOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s PreOrderStatus) IsTerminal() bool {
	return s == PreOrderStatusCancelled || s == PreOrderStatusDelivered
}

// ParsePreOrderStatus converts raw input into PreOrderStatus.
func ParsePreOrderStatus(value string) (PreOrderStatus, error) {
	for _, candidate := range validPreOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid preorder status %q", value)
}

// PaymentOption captures when the seller settles an accepted pre-order.
type PaymentOption string

const (
	PaymentOptionPayNow   PaymentOption = "pay_now"
	PaymentOptionPayLater PaymentOption = "pay_later"
)

var validPaymentOptions = []PaymentOption{
	PaymentOptionPayNow,
	PaymentOptionPayLater,
}

func (p PaymentOption) IsValid() bool {
	for _, candidate := range validPaymentOptions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOption converts raw input into PaymentOption.
func ParsePaymentOption(value string) (PaymentOption, error) {
	for _, candidate := range validPaymentOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment option %q", value)
}

// PreOrderDeliveryStatus tracks shipment separately from the request status.
type PreOrderDeliveryStatus string

const (
	PreOrderDeliveryPending   PreOrderDeliveryStatus = "pending"
	PreOrderDeliveryDelivered PreOrderDeliveryStatus = "delivered"
)

func (d PreOrderDeliveryStatus) IsValid() bool {
	return d == PreOrderDeliveryPending || d == PreOrderDeliveryDelivered
}

// PreOrderDecision is the supplier's answer to a pending request.
type PreOrderDecision string

const (
	PreOrderDecisionAccept PreOrderDecision = "accept"
	PreOrderDecisionReject PreOrderDecision = "reject"
)

// ParsePreOrderDecision converts raw input into PreOrderDecision.
func ParsePreOrderDecision(value string) (PreOrderDecision, error) {
	switch PreOrderDecision(value) {
	case PreOrderDecisionAccept, PreOrderDecisionReject:
		return PreOrderDecision(value), nil
	default:
		return "", fmt.Errorf("invalid preorder decision %q", value)
	}
}
