package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePreOrderDecision NotificationType = "preorder_decision"
	NotificationTypePreOrderPayment  NotificationType = "preorder_payment"
	NotificationTypePreOrderDelivery NotificationType = "preorder_delivery"
	NotificationTypePreOrderCancel   NotificationType = "preorder_cancelled"
	NotificationTypeOrderPayment     NotificationType = "order_payment"
	NotificationTypeOrderDelivery    NotificationType = "order_delivery"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePreOrderDecision,
	NotificationTypePreOrderPayment,
	NotificationTypePreOrderDelivery,
	NotificationTypePreOrderCancel,
	NotificationTypeOrderPayment,
	NotificationTypeOrderDelivery,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
