package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrder       NotificationType = "order"
	NotificationTypeWallet      NotificationType = "wallet"
	NotificationTypeWarning     NotificationType = "warning"
	NotificationTypeFeedback    NotificationType = "feedback"
	NotificationTypeBid         NotificationType = "bid"
	NotificationTypeAccount     NotificationType = "account"
	NotificationTypeVIP         NotificationType = "vip"
	NotificationTypeSystem      NotificationType = "system"
	NotificationTypeReservation NotificationType = "reservation"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeWallet,
	NotificationTypeWarning,
	NotificationTypeFeedback,
	NotificationTypeBid,
	NotificationTypeAccount,
	NotificationTypeVIP,
	NotificationTypeSystem,
	NotificationTypeReservation,
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
