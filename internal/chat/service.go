package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/discipline"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
)

const (
	defaultCategory     = "General"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultTimeout      = 20 * time.Second

	FallbackAnswer = "I'm having trouble answering that right now. Please try again later."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReviewAction is a manager's verdict on a flagged answer.
type ReviewAction string

const (
	ReviewRemove ReviewAction = "remove"
	ReviewKeep   ReviewAction = "keep"
)

type AskInput struct {
	UserID    *uuid.UUID
	SessionID string
	Message   string
}

type Answer struct {
	ChatID      uuid.UUID        `json:"chatId"`
	SessionID   string           `json:"sessionId"`
	Response    string           `json:"response"`
	Source      enums.ChatSource `json:"source"`
	KnowledgeID *uuid.UUID       `json:"kbId,omitempty"`
	Category    *string          `json:"category,omitempty"`
	NeedsRating bool             `json:"needsRating"`
}

type RateInput struct {
	ChatID   uuid.UUID
	UserID   *uuid.UUID
	Rating   int
	Feedback string
}

type AddKnowledgeInput struct {
	UserID   uuid.UUID
	Question string
	Answer   string
	Category string
}

type ReviewResult struct {
	Rating      *models.ChatRating  `json:"rating"`
	Deactivated *uuid.UUID          `json:"deactivatedKbId,omitempty"`
	Outcome     *discipline.Outcome `json:"outcome,omitempty"`
}

type Service interface {
	Ask(ctx context.Context, input AskInput) (*Answer, error)
	Rate(ctx context.Context, input RateInput) (*models.ChatRating, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
	AddKnowledge(ctx context.Context, input AddKnowledgeInput) (*models.KnowledgeEntry, error)
	PendingKnowledge(ctx context.Context) ([]PendingKnowledge, error)
	ApproveKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	RejectKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	FlaggedRatings(ctx context.Context) ([]FlaggedRating, error)
	ReviewFlagged(ctx context.Context, ratingID, managerID uuid.UUID, action ReviewAction) (*ReviewResult, error)
}

type ServiceParams struct {
	Repo     Repository
	Users    *users.Repository
	Tx       txRunner
	Answerer Answerer
	Warner   discipline.Warner
	Metrics  *metrics.DomainMetrics
	Logger   *logger.Logger
	Config   config.ChatConfig
}

type service struct {
	repo     Repository
	users    *users.Repository
	tx       txRunner
	answerer Answerer
	warner   discipline.Warner
	metrics  *metrics.DomainMetrics
	logg     *logger.Logger
	timeout  time.Duration
}

// NewService wires the assistant. A nil Answerer serves the fallback answer
// whenever the knowledge base misses.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("chat repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Warner == nil {
		return nil, fmt.Errorf("warner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.Config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		tx:       params.Tx,
		answerer: params.Answerer,
		warner:   params.Warner,
		metrics:  params.Metrics,
		logg:     logg,
		timeout:  timeout,
	}, nil
}

// Ask answers from the knowledge base when possible and otherwise from the
// language model. Model failures degrade to a canned answer.
func (s *service) Ask(ctx context.Context, input AskInput) (*Answer, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message cannot be empty")
	}
	session := strings.TrimSpace(input.SessionID)
	if session == "" {
		session = uuid.NewString()
	}

	entry, err := s.repo.SearchKnowledge(ctx, message)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search knowledge base")
	}

	answer := &Answer{SessionID: session}
	if entry != nil {
		answer.Response = entry.Answer
		answer.Source = enums.ChatSourceKnowledgeBase
		answer.KnowledgeID = &entry.ID
		answer.Category = entry.Category
		answer.NeedsRating = true
	} else {
		answer.Response, answer.Source = s.generate(ctx, message)
	}

	row := &models.ChatMessage{
		UserID:           input.UserID,
		SessionID:        session,
		Message:          message,
		Response:         answer.Response,
		Source:           answer.Source,
		KnowledgeEntryID: answer.KnowledgeID,
	}
	if err := s.repo.CreateMessage(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store chat message")
	}
	answer.ChatID = row.ID
	s.metrics.ChatAnswer(string(answer.Source))
	return answer, nil
}

func (s *service) generate(ctx context.Context, question string) (string, enums.ChatSource) {
	if s.answerer == nil {
		return FallbackAnswer, enums.ChatSourceFallback
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.answerer.Answer(llmCtx, question)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "timeout", s.timeout.String()), "chat llm answer failed", err)
		return FallbackAnswer, enums.ChatSourceFallback
	}
	if strings.TrimSpace(text) == "" {
		s.logg.Warn(ctx, "chat llm returned an empty answer")
		return FallbackAnswer, enums.ChatSourceFallback
	}
	return text, enums.ChatSourceLLM
}

// Rate stores a score for an answer. A zero flags it for review and answers
// served from the knowledge base refresh the entry's average.
func (s *service) Rate(ctx context.Context, input RateInput) (*models.ChatRating, error) {
	if input.ChatID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	if input.Rating < 0 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}

	var out *models.ChatRating
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		msg, err := repo.FindMessage(ctx, input.ChatID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
		}

		rating := &models.ChatRating{
			ChatID:       msg.ID,
			UserID:       input.UserID,
			Rating:       input.Rating,
			IsFlagged:    input.Rating == 0,
			ReviewStatus: enums.RatingReviewPending,
		}
		if feedback := strings.TrimSpace(input.Feedback); feedback != "" {
			rating.Feedback = &feedback
		}
		if err := repo.CreateRating(ctx, rating); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store chat rating")
		}

		if msg.KnowledgeEntryID != nil {
			if err := repo.RecomputeKnowledgeStats(ctx, *msg.KnowledgeEntryID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update knowledge rating")
			}
		}
		out = rating
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := s.repo.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat history")
	}
	return rows, nil
}

// AddKnowledge stores a question and answer. Employees publish directly and
// everyone else waits for a manager.
func (s *service) AddKnowledge(ctx context.Context, input AddKnowledgeInput) (*models.KnowledgeEntry, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	if question == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question is required")
	}
	if answer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "answer is required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = defaultCategory
	}

	author, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	entry := &models.KnowledgeEntry{
		Question:   question,
		Answer:     answer,
		Category:   &category,
		CreatedBy:  &author.ID,
		IsApproved: author.Role.IsEmployee(),
		IsActive:   true,
	}
	if err := s.repo.CreateKnowledge(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store knowledge entry")
	}
	return entry, nil
}

func (s *service) PendingKnowledge(ctx context.Context) ([]PendingKnowledge, error) {
	rows, err := s.repo.ListPendingKnowledge(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending knowledge")
	}
	return rows, nil
}

func (s *service) ApproveKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	return s.setKnowledge(ctx, id, map[string]any{"is_approved": true})
}

// RejectKnowledge deactivates the entry; rows are never deleted.
func (s *service) RejectKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	return s.setKnowledge(ctx, id, map[string]any{"is_active": false})
}

func (s *service) setKnowledge(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.KnowledgeEntry, error) {
	if _, err := s.repo.FindKnowledge(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "knowledge entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load knowledge entry")
	}
	if err := s.repo.UpdateKnowledge(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update knowledge entry")
	}
	entry, err := s.repo.FindKnowledge(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload knowledge entry")
	}
	return entry, nil
}

func (s *service) FlaggedRatings(ctx context.Context) ([]FlaggedRating, error) {
	rows, err := s.repo.ListFlagged(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list flagged ratings")
	}
	return rows, nil
}

// ReviewFlagged settles a flagged rating. Removing pulls the knowledge entry
// behind the answer and warns whoever wrote it.
func (s *service) ReviewFlagged(ctx context.Context, ratingID, managerID uuid.UUID, action ReviewAction) (*ReviewResult, error) {
	if action != ReviewRemove && action != ReviewKeep {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be remove or keep")
	}

	result := &ReviewResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rating, err := repo.FindRatingForUpdate(ctx, ratingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rating not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rating")
		}
		if !rating.IsFlagged || rating.ReviewStatus != enums.RatingReviewPending {
			return pkgerrors.New(pkgerrors.CodeForbidden, "rating is not awaiting review").
				WithDetails(map[string]any{"reviewStatus": rating.ReviewStatus})
		}

		status := enums.RatingReviewRejected
		if action == ReviewRemove {
			status = enums.RatingReviewApproved
			if err := s.removeSource(ctx, tx, rating, result); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		ok, err := repo.UpdateRatingReview(ctx, rating.ID, status, managerID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rating review")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "rating is not awaiting review")
		}
		rating.ReviewStatus = status
		rating.ReviewedBy = &managerID
		rating.ReviewedAt = &now
		result.Rating = rating
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) removeSource(ctx context.Context, tx *gorm.DB, rating *models.ChatRating, result *ReviewResult) error {
	repo := s.repo.WithTx(tx)
	msg, err := repo.FindMessage(ctx, rating.ChatID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rated chat")
	}
	if msg.KnowledgeEntryID == nil {
		return nil
	}

	entry, err := repo.FindKnowledge(ctx, *msg.KnowledgeEntryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load knowledge entry")
	}
	if err := repo.UpdateKnowledge(ctx, entry.ID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate knowledge entry")
	}
	result.Deactivated = &entry.ID

	if entry.CreatedBy == nil {
		return nil
	}
	outcome, err := s.warner.Warn(ctx, tx, *entry.CreatedBy, "A knowledge base answer you wrote was removed after review.")
	if err != nil {
		return err
	}
	result.Outcome = &outcome
	return nil
}
