package enums

import "fmt"

// ChatSource records which collaborator produced a chat answer.
type ChatSource string

const (
	ChatSourceKnowledgeBase ChatSource = "knowledge_base"
	ChatSourceLLM           ChatSource = "llm"
	ChatSourceFallback      ChatSource = "fallback"
)

var validChatSources = []ChatSource{
	ChatSourceKnowledgeBase,
	ChatSourceLLM,
	ChatSourceFallback,
}

// IsValid reports whether the value matches the canonical chat_source enum.
func (c ChatSource) IsValid() bool {
	for _, candidate := range validChatSources {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChatSource converts raw input into ChatSource.
func ParseChatSource(value string) (ChatSource, error) {
	for _, candidate := range validChatSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid chat source %q", value)
}

// RatingReviewStatus is the manager decision on a flagged chat rating.
type RatingReviewStatus string

const (
	RatingReviewPending  RatingReviewStatus = "pending"
	RatingReviewApproved RatingReviewStatus = "approved"
	RatingReviewRejected RatingReviewStatus = "rejected"
)
