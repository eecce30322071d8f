package enums

import "fmt"

// ReservationStatus maps to the reservation_status enum in Postgres.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "Pending"
	ReservationStatusConfirmed ReservationStatus = "Confirmed"
	ReservationStatusCancelled ReservationStatus = "Cancelled"
)

var validReservationStatuss = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCancelled,
}

// IsValid reports whether the value matches the canonical reservation_status enum.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuss {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
