package enums

import "fmt"

// BidStatus maps to the bid_status enum in Postgres.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusApproved BidStatus = "approved"
	BidStatusRejected BidStatus = "rejected"
)

var validBidStatuss = []BidStatus{
	BidStatusPending,
	BidStatusApproved,
	BidStatusRejected,
}

// IsValid reports whether the value matches the canonical bid_status enum.
func (b BidStatus) IsValid() bool {
	for _, candidate := range validBidStatuss {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBidStatus converts raw input into BidStatus.
func ParseBidStatus(value string) (BidStatus, error) {
	for _, candidate := range validBidStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bid status %q", value)
}
