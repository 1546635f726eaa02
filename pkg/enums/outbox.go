package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregatePreOrder     OutboxAggregateType = "preorder"
	AggregateOrder        OutboxAggregateType = "order"
	AggregateDelivery     OutboxAggregateType = "delivery"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePreOrder,
	AggregateOrder,
	AggregateDelivery,
	AggregateNotification,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventPreOrderSubmitted     OutboxEventType = "preorder_submitted"
	EventPreOrderDecided       OutboxEventType = "preorder_decided"
	EventPreOrderPaid          OutboxEventType = "preorder_paid"
	EventPreOrderDelivered     OutboxEventType = "preorder_delivered"
	EventPreOrderCancelled     OutboxEventType = "preorder_cancelled"
	EventPreOrdersOverdue      OutboxEventType = "preorders_overdue"
	EventOrderPaid             OutboxEventType = "order_paid"
	EventCashCollected         OutboxEventType = "cash_collected"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPreOrderSubmitted,
	EventPreOrderDecided,
	EventPreOrderPaid,
	EventPreOrderDelivered,
	EventPreOrderCancelled,
	EventPreOrdersOverdue,
	EventOrderPaid,
	EventCashCollected,
	EventNotificationRequested,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
