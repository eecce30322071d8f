package enums

import "fmt"

// VIPRequestStatus tracks a customer's request for VIP standing.
type VIPRequestStatus string

const (
	VIPRequestPending  VIPRequestStatus = "pending"
	VIPRequestApproved VIPRequestStatus = "approved"
	VIPRequestRejected VIPRequestStatus = "rejected"
)

var validVIPRequestStatuss = []VIPRequestStatus{
	VIPRequestPending,
	VIPRequestApproved,
	VIPRequestRejected,
}

// IsValid reports whether the value matches the canonical vip_request_status enum.
func (v VIPRequestStatus) IsValid() bool {
	for _, candidate := range validVIPRequestStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVIPRequestStatus converts raw input into VIPRequestStatus.
func ParseVIPRequestStatus(value string) (VIPRequestStatus, error) {
	for _, candidate := range validVIPRequestStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vip request status %q", value)
}
