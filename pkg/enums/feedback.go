package enums

import (
	"fmt"
	"strings"
)

// FeedbackType distinguishes complaints from compliments.
type FeedbackType string

const (
	FeedbackTypeComplaint  FeedbackType = "complaint"
	FeedbackTypeCompliment FeedbackType = "compliment"
)

var validFeedbackTypes = []FeedbackType{
	FeedbackTypeComplaint,
	FeedbackTypeCompliment,
}

// IsValid reports whether the value matches the canonical feedback_type enum.
func (f FeedbackType) IsValid() bool {
	for _, candidate := range validFeedbackTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeedbackType converts raw input into FeedbackType.
func ParseFeedbackType(value string) (FeedbackType, error) {
	for _, candidate := range validFeedbackTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback type %q", value)
}

// FeedbackStatus maps to the feedback_status enum in Postgres.
type FeedbackStatus string

const (
	FeedbackStatusOpen        FeedbackStatus = "Open"
	FeedbackStatusUnderReview FeedbackStatus = "Under Review"
	FeedbackStatusResolved    FeedbackStatus = "Resolved"
	FeedbackStatusDismissed   FeedbackStatus = "Dismissed"
	FeedbackStatusNA          FeedbackStatus = "N/A"
)

// ParseFeedbackStatus accepts the stored status names, case-insensitively.
func ParseFeedbackStatus(value string) (FeedbackStatus, error) {
	for _, candidate := range []FeedbackStatus{
		FeedbackStatusOpen,
		FeedbackStatusUnderReview,
		FeedbackStatusResolved,
		FeedbackStatusDismissed,
		FeedbackStatusNA,
	} {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback status %q", value)
}

// Reviewable reports whether a manager may still decide the feedback.
func (f FeedbackStatus) Reviewable() bool {
	return f == FeedbackStatusOpen || f == FeedbackStatusUnderReview
}

// FeedbackTargetKind names who a piece of feedback is about.
type FeedbackTargetKind string

const (
	FeedbackTargetChef     FeedbackTargetKind = "chef"
	FeedbackTargetDelivery FeedbackTargetKind = "delivery"
	FeedbackTargetCustomer FeedbackTargetKind = "customer"
)

// ParseFeedbackTargetKind converts raw input into FeedbackTargetKind.
func ParseFeedbackTargetKind(value string) (FeedbackTargetKind, error) {
	switch FeedbackTargetKind(value) {
	case FeedbackTargetChef, FeedbackTargetDelivery, FeedbackTargetCustomer:
		return FeedbackTargetKind(value), nil
	}
	return "", fmt.Errorf("invalid feedback target %q", value)
}
