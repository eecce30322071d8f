package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/feedback"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

const (
	MinRating = 0
	MaxRating = 5
	// ComplimentThreshold is the lowest score that counts as a compliment.
	ComplimentThreshold = 4
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RateInput scores a delivered order. A nil or zero score skips that dimension.
type RateInput struct {
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	FoodRating     *int
	DeliveryRating *int
}

type Result struct {
	Feedback []models.Feedback `json:"feedback"`
	Reviews  int               `json:"reviews"`
}

type Service interface {
	Rate(ctx context.Context, input RateInput) (*Result, error)
	DishScore(ctx context.Context, menuItemID uuid.UUID) (DishScore, error)
}

type service struct {
	repo     *Repository
	orders   orders.Repository
	feedback feedback.Service
	tx       txRunner
}

func NewService(repo *Repository, ordersRepo orders.Repository, feedbackSvc feedback.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if feedbackSvc == nil {
		return nil, fmt.Errorf("feedback service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: ordersRepo, feedback: feedbackSvc, tx: tx}, nil
}

// Rate turns scores into feedback: high scores become compliments and low
// scores complaints, aimed at the chef for food and the driver for delivery.
func (s *service) Rate(ctx context.Context, input RateInput) (*Result, error) {
	if input.OrderID == uuid.Nil || input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and customer id required")
	}
	food, err := score("foodRating", input.FoodRating)
	if err != nil {
		return nil, err
	}
	delivery, err := score("deliveryRating", input.DeliveryRating)
	if err != nil {
		return nil, err
	}
	if food == 0 && delivery == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one rating between 1 and 5 required")
	}

	result := &Result{Feedback: []models.Feedback{}}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer can rate")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only delivered orders can be rated").
				WithDetails(map[string]any{"status": order.Status})
		}

		if food > 0 {
			row, err := s.feedback.SubmitTx(ctx, tx, feedback.SubmitInput{
				FromUserID: input.CustomerID,
				Target:     feedback.ChefTarget(order.ID),
				Type:       typeFor(food),
				Message:    fmt.Sprintf("Food rated %d/5", food),
			})
			if err != nil {
				return err
			}
			result.Feedback = append(result.Feedback, *row)

			reviews := make([]models.Review, 0, len(order.Items))
			for _, item := range order.Items {
				reviews = append(reviews, models.Review{
					OrderID:     order.ID,
					OrderItemID: item.ID,
					MenuItemID:  item.MenuItemID,
					CustomerID:  input.CustomerID,
					Rating:      food,
				})
			}
			if err := s.repo.WithTx(tx).CreateReviews(ctx, reviews); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reviews")
			}
			result.Reviews = len(reviews)
		}

		if delivery > 0 {
			row, err := s.feedback.SubmitTx(ctx, tx, feedback.SubmitInput{
				FromUserID: input.CustomerID,
				Target:     feedback.DeliveryTarget(order.ID),
				Type:       typeFor(delivery),
				Message:    fmt.Sprintf("Delivery rated %d/5", delivery),
			})
			if err != nil {
				return err
			}
			result.Feedback = append(result.Feedback, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) DishScore(ctx context.Context, menuItemID uuid.UUID) (DishScore, error) {
	out, err := s.repo.ScoreForDish(ctx, menuItemID)
	if err != nil {
		return DishScore{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish score")
	}
	return out, nil
}

func score(field string, value *int) (int, error) {
	if value == nil {
		return 0, nil
	}
	if *value < MinRating || *value > MaxRating {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between %d and %d", field, MinRating, MaxRating))
	}
	return *value, nil
}

func typeFor(rating int) enums.FeedbackType {
	if rating >= ComplimentThreshold {
		return enums.FeedbackTypeCompliment
	}
	return enums.FeedbackTypeComplaint
}
