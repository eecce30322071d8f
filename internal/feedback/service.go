package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/discipline"
	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Decision is a manager's verdict on a complaint.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDismiss Decision = "dismiss"
)

type SubmitInput struct {
	FromUserID uuid.UUID
	Target     Target
	Type       enums.FeedbackType
	Message    string
}

type ReviewInput struct {
	FeedbackID uuid.UUID
	ManagerID  uuid.UUID
	Decision   Decision
}

// ReviewResult is the reviewed feedback plus the warning it caused.
type ReviewResult struct {
	Feedback *models.Feedback   `json:"feedback"`
	Warned   uuid.UUID          `json:"warnedUserId"`
	Outcome  discipline.Outcome `json:"outcome"`
}

type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Feedback, error)
	SubmitTx(ctx context.Context, tx *gorm.DB, input SubmitInput) (*models.Feedback, error)
	Review(ctx context.Context, input ReviewInput) (*ReviewResult, error)
	Dispute(ctx context.Context, feedbackID, userID uuid.UUID) (*models.Feedback, error)
	ListSent(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error)
	ListReceived(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error)
	ListAll(ctx context.Context, status *enums.FeedbackStatus, params pagination.Params) (*pagination.Page[models.Feedback], error)
	CountOpenComplaints(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	orders   orders.Repository
	users    *users.Repository
	tx       txRunner
	warner   discipline.Warner
	notifier notifications.Notifier
	logg     *logger.Logger
}

func NewService(repo Repository, ordersRepo orders.Repository, usersRepo *users.Repository, tx txRunner, warner discipline.Warner, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("feedback repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if warner == nil {
		return nil, fmt.Errorf("discipline engine required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		orders:   ordersRepo,
		users:    usersRepo,
		tx:       tx,
		warner:   warner,
		notifier: notifier,
		logg:     logg,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Feedback, error) {
	var row *models.Feedback
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		row, err = s.SubmitTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SubmitTx files feedback inside the caller's transaction. Complaints open for
// review; compliments need none.
func (s *service) SubmitTx(ctx context.Context, tx *gorm.DB, input SubmitInput) (*models.Feedback, error) {
	if input.FromUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author id required")
	}
	if input.Target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type must be complaint or compliment")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}

	targetID, err := input.Target.resolve(ctx, resolver{
		orders: s.orders.WithTx(tx),
		users:  s.users.WithTx(tx),
	})
	if err != nil {
		return nil, err
	}
	if targetID == input.FromUserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot file feedback about yourself")
	}

	status := enums.FeedbackStatusNA
	if input.Type == enums.FeedbackTypeComplaint {
		status = enums.FeedbackStatusOpen
	}
	row := &models.Feedback{
		FromUserID:   input.FromUserID,
		TargetUserID: targetID,
		TargetKind:   input.Target.Kind(),
		Type:         input.Type,
		Status:       status,
		Message:      message,
		OrderID:      input.Target.OrderID(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feedback")
	}
	if err := s.notifier.Notify(ctx, tx, targetID, enums.NotificationTypeFeedback,
		fmt.Sprintf("You received a %s: %s", input.Type, message)); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"feedback_id": row.ID.String(),
		"target_id":   targetID.String(),
		"type":        input.Type,
	})
	s.logg.Info(logCtx, "feedback submitted")
	return row, nil
}

// Review decides a complaint. Approving warns the person complained about;
// dismissing warns the person who complained.
func (s *service) Review(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if input.FeedbackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feedback id required")
	}
	if input.Decision != DecisionApprove && input.Decision != DecisionDismiss {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or dismiss")
	}

	var result ReviewResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, input.FeedbackID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "feedback not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feedback")
		}
		if row.Type != enums.FeedbackTypeComplaint || !row.Status.Reviewable() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "feedback is not open for review").
				WithDetails(map[string]any{"status": row.Status, "type": row.Type})
		}

		to, warned, reason := enums.FeedbackStatusResolved, row.TargetUserID, "complaint upheld: "+row.Message
		if input.Decision == DecisionDismiss {
			to, warned, reason = enums.FeedbackStatusDismissed, row.FromUserID, "complaint dismissed as unfounded"
		}

		ok, err := repo.UpdateStatus(ctx, row.ID,
			[]enums.FeedbackStatus{enums.FeedbackStatusOpen, enums.FeedbackStatusUnderReview}, to, uuidPtr(input.ManagerID))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update feedback")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "feedback is not open for review")
		}

		outcome, err := s.warner.Warn(ctx, tx, warned, reason)
		if err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, row.FromUserID, enums.NotificationTypeFeedback,
			fmt.Sprintf("Your complaint was %s.", strings.ToLower(string(to)))); err != nil {
			return err
		}

		updated, err := repo.FindByID(ctx, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload feedback")
		}
		result = ReviewResult{Feedback: updated, Warned: warned, Outcome: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"feedback_id": input.FeedbackID.String(),
		"decision":    input.Decision,
		"warned":      result.Warned.String(),
	})
	s.logg.Info(logCtx, "complaint reviewed")
	return &result, nil
}

// Dispute lets the target of an open complaint push it to manager review.
func (s *service) Dispute(ctx context.Context, feedbackID, userID uuid.UUID) (*models.Feedback, error) {
	if feedbackID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feedback id and user id required")
	}
	var updated *models.Feedback
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByIDForUpdate(ctx, feedbackID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "feedback not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feedback")
		}
		if row.TargetUserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the recipient can dispute a complaint")
		}
		if row.Type != enums.FeedbackTypeComplaint || row.Status != enums.FeedbackStatusOpen {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only open complaints can be disputed").
				WithDetails(map[string]any{"status": row.Status})
		}
		if _, err := repo.UpdateStatus(ctx, row.ID, []enums.FeedbackStatus{enums.FeedbackStatusOpen}, enums.FeedbackStatusUnderReview, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispute feedback")
		}
		updated, err = repo.FindByID(ctx, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload feedback")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListSent(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, listFilter{FromUserID: &userID}, params)
}

func (s *service) ListReceived(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Feedback], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, listFilter{TargetUserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, status *enums.FeedbackStatus, params pagination.Params) (*pagination.Page[models.Feedback], error) {
	return s.list(ctx, listFilter{Status: status}, params)
}

func (s *service) CountOpenComplaints(ctx context.Context) (int64, error) {
	count, err := s.repo.CountOpenComplaints(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count complaints")
	}
	return count, nil
}

func (s *service) list(ctx context.Context, filter listFilter, params pagination.Params) (*pagination.Page[models.Feedback], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Cursor = cursor
	filter.Limit = params.Limit

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feedback")
	}
	page := pagination.Build(rows, params.Limit, func(f models.Feedback) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID}
	})
	return &page, nil
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
