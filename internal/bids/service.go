package bids

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the delivery auction.
type Service interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.DeliveryBid, error)
	ListAvailableOrders(ctx context.Context) ([]AvailableOrder, error)
	ListPendingBids(ctx context.Context) ([]models.DeliveryBid, error)
	ApproveBid(ctx context.Context, input ApproveInput) (*models.DeliveryBid, error)
	RejectBid(ctx context.Context, bidID, managerID uuid.UUID) (*models.DeliveryBid, error)
	ExpireOrphaned(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo     Repository
	orders   orders.Repository
	drivers  *users.Repository
	tx       txRunner
	notifier notifications.Notifier
	outbox   outbox.Emitter
	logg     *logger.Logger
}

func NewService(repo Repository, ordersRepo orders.Repository, drivers *users.Repository, tx txRunner, notifier notifications.Notifier, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		orders:   ordersRepo,
		drivers:  drivers,
		tx:       tx,
		notifier: notifier,
		outbox:   emitter,
		logg:     logg,
	}, nil
}

func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.DeliveryBid, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidBid, "bid amount must be greater than zero")
	}
	if input.OrderID == uuid.Nil || input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and driver id required")
	}

	driver, err := users.RequireAssignable(ctx, s.drivers, input.DriverID, enums.UserRoleDriver)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusReadyForDelivery || order.DeliveredBy != nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not open for bids").
			WithDetails(map[string]any{"status": order.Status})
	}

	bid, err := s.repo.Upsert(ctx, &models.DeliveryBid{
		OrderID:  order.ID,
		DriverID: driver.ID,
		Amount:   input.Amount.Round(2),
		Status:   enums.BidStatusPending,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bid")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":  order.ID.String(),
		"driver_id": driver.ID.String(),
		"amount":    bid.Amount.StringFixed(2),
	})
	s.logg.Info(logCtx, "bid placed")
	return bid, nil
}

func (s *service) ListAvailableOrders(ctx context.Context) ([]AvailableOrder, error) {
	open, err := s.orders.ListReadyUnassigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available orders")
	}
	ids := make([]uuid.UUID, 0, len(open))
	for _, order := range open {
		ids = append(ids, order.ID)
	}
	pending, err := s.repo.ListByOrders(ctx, ids, enums.BidStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}

	byOrder := make(map[uuid.UUID][]BidDTO, len(open))
	for _, bid := range pending {
		byOrder[bid.OrderID] = append(byOrder[bid.OrderID], FromModel(bid))
	}
	out := make([]AvailableOrder, 0, len(open))
	for _, order := range open {
		bids := byOrder[order.ID]
		if bids == nil {
			bids = []BidDTO{}
		}
		out = append(out, AvailableOrder{
			OrderID:         order.ID,
			CustomerID:      order.CustomerID,
			DeliveryAddress: order.DeliveryAddress,
			TotalPrice:      order.TotalPrice,
			ReadySince:      order.UpdatedAt,
			Bids:            bids,
		})
	}
	return out, nil
}

func (s *service) ListPendingBids(ctx context.Context) ([]models.DeliveryBid, error) {
	rows, err := s.repo.ListPendingOnUnassigned(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending bids")
	}
	return rows, nil
}

// ApproveBid assigns the bidding driver to the order. Choosing anything but
// the cheapest pending bid needs a written justification.
func (s *service) ApproveBid(ctx context.Context, input ApproveInput) (*models.DeliveryBid, error) {
	if input.BidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	justification := strings.TrimSpace(input.Justification)

	var (
		approved *models.DeliveryBid
		rejected []models.DeliveryBid
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		bid, err := repo.FindByIDForUpdate(ctx, input.BidID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}
		if bid.Status != enums.BidStatusPending {
			return pkgerrors.New(pkgerrors.CodeForbidden, "bid is no longer pending").
				WithDetails(map[string]any{"status": bid.Status})
		}

		order, err := ordersRepo.FindByIDForUpdate(ctx, bid.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.DeliveredBy != nil || order.Status != enums.OrderStatusReadyForDelivery {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order already has a driver")
		}

		pending, err := repo.ListPendingByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
		}
		lowest := bid.Amount
		if len(pending) > 0 && pending[0].Amount.LessThan(lowest) {
			lowest = pending[0].Amount
		}
		if bid.Amount.GreaterThan(lowest) && justification == "" {
			return pkgerrors.New(pkgerrors.CodeJustificationRequired, "justification required when the lowest bid is not selected").
				WithDetails(map[string]any{
					"lowest":   lowest.StringFixed(2),
					"selected": bid.Amount.StringFixed(2),
				})
		}

		// The driver may have been demoted or deactivated since bidding.
		if _, err := users.RequireAssignable(ctx, s.drivers.WithTx(tx), bid.DriverID, enums.UserRoleDriver); err != nil {
			return err
		}

		assigned, err := ordersRepo.AssignDriverIfUnset(ctx, order.ID, bid.DriverID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign driver")
		}
		if !assigned {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order already has a driver")
		}

		var stored *string
		if justification != "" {
			stored = &justification
		}
		ok, err := repo.SetStatus(ctx, bid.ID, []enums.BidStatus{enums.BidStatusPending}, enums.BidStatusApproved, stored)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve bid")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "bid is no longer pending")
		}
		rejected, err = repo.RejectSiblings(ctx, order.ID, bid.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject competing bids")
		}

		if err := s.notifier.Notify(ctx, tx, bid.DriverID, enums.NotificationTypeBid,
			fmt.Sprintf("Your bid of $%s was approved. Pick up the order when ready.", bid.Amount.StringFixed(2))); err != nil {
			return err
		}
		for _, other := range rejected {
			if err := s.notifier.Notify(ctx, tx, other.DriverID, enums.NotificationTypeBid,
				"Another driver was selected for an order you bid on."); err != nil {
				return err
			}
		}

		rejectedIDs := make([]uuid.UUID, 0, len(rejected))
		for _, other := range rejected {
			rejectedIDs = append(rejectedIDs, other.ID)
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidApproved,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Actor:         &outbox.ActorRef{UserID: input.ManagerID, Role: enums.UserRoleManager},
			Data: payloads.BidApprovedEvent{
				BidID:          bid.ID,
				OrderID:        order.ID,
				DriverID:       bid.DriverID,
				Amount:         bid.Amount,
				LowestAmount:   lowest,
				Justification:  justification,
				RejectedBidIDs: rejectedIDs,
				ApprovedAt:     time.Now().UTC(),
			},
		}); err != nil {
			return err
		}

		approved, err = repo.FindByID(ctx, bid.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload bid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"bid_id":     approved.ID.String(),
		"order_id":   approved.OrderID.String(),
		"driver_id":  approved.DriverID.String(),
		"rejected":   len(rejected),
		"manager_id": input.ManagerID.String(),
		"justified":  justification != "",
	})
	s.logg.Info(logCtx, "bid approved")
	return approved, nil
}

func (s *service) RejectBid(ctx context.Context, bidID, managerID uuid.UUID) (*models.DeliveryBid, error) {
	if bidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	var rejected *models.DeliveryBid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bid, err := repo.FindByID(ctx, bidID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}
		if bid.Status == enums.BidStatusApproved {
			return pkgerrors.New(pkgerrors.CodeForbidden, "an approved bid cannot be rejected")
		}
		if _, err := repo.SetStatus(ctx, bid.ID, []enums.BidStatus{enums.BidStatusPending, enums.BidStatusRejected}, enums.BidStatusRejected, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject bid")
		}
		if bid.Status == enums.BidStatusPending {
			if err := s.notifier.Notify(ctx, tx, bid.DriverID, enums.NotificationTypeBid, "Your delivery bid was declined."); err != nil {
				return err
			}
		}
		rejected, err = repo.FindByID(ctx, bid.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload bid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"bid_id":     bidID.String(),
		"manager_id": managerID.String(),
	}), "bid rejected")
	return rejected, nil
}

// ExpireOrphaned rejects pending bids left behind on orders that were
// assigned or cancelled.
func (s *service) ExpireOrphaned(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "age must not be negative")
	}
	count, err := s.repo.RejectOrphanedBefore(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire bids")
	}
	return count, nil
}
