package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/discipline"
	"github.com/sdfoods/restaurant-backend/internal/ledger"
	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MenuCatalog resolves dishes for pricing.
type MenuCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MenuItem, error)
}

// Service drives the order lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Accept(ctx context.Context, input TransitionInput) (*models.Order, error)
	Complete(ctx context.Context, input TransitionInput) (*models.Order, error)
	Reject(ctx context.Context, input TransitionInput) (*models.Order, error)
	Pickup(ctx context.Context, input TransitionInput) (*models.Order, error)
	Deliver(ctx context.Context, input TransitionInput) (*models.Order, error)
	Get(ctx context.Context, orderID, viewerID uuid.UUID, role enums.UserRole) (*models.Order, error)
	History(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
	ChefQueue(ctx context.Context) ([]models.Order, error)
	DriverAssigned(ctx context.Context, driverID uuid.UUID) ([]models.Order, error)
}

// ServiceParams wires the order service collaborators. Metrics and Logger are optional.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Menu      MenuCatalog
	Users     *users.Repository
	Ledger    ledger.Service
	Warner    discipline.Warner
	Notifier  notifications.Notifier
	Outbox    outbox.Emitter
	Metrics   *metrics.DomainMetrics
	Logger    *logger.Logger
	Config    config.OrderingConfig
}

type service struct {
	repo      Repository
	tx        txRunner
	menu      MenuCatalog
	users     *users.Repository
	ledger    ledger.Service
	warner    discipline.Warner
	notifier  notifications.Notifier
	outbox    outbox.Emitter
	metrics   *metrics.DomainMetrics
	logg      *logger.Logger
	cfg       config.OrderingConfig
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Menu == nil {
		return nil, fmt.Errorf("menu catalog required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Warner == nil {
		return nil, fmt.Errorf("discipline engine required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := params.Config
	if cfg.DeliveryLeadTime <= 0 {
		cfg.DeliveryLeadTime = 24 * time.Hour
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		menu:      params.Menu,
		users:     params.Users,
		ledger:    params.Ledger,
		warner:    params.Warner,
		notifier:  params.Notifier,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      logg,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlacement(input); err != nil {
		return nil, err
	}

	customer, err := s.users.FindByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account suspended")
	}

	items, subtotal, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	submitted := input.TotalAmount.Round(2)
	if !submitted.Equal(subtotal) {
		return nil, pkgerrors.New(pkgerrors.CodeTotalMismatch, "order total does not match menu prices").
			WithDetails(map[string]any{
				"expected":  subtotal.StringFixed(2),
				"submitted": submitted.StringFixed(2),
			})
	}
	charge := ledger.ComputeCharge(subtotal, customer.IsVIP)

	now := s.now()
	order := &models.Order{
		CustomerID:      customer.ID,
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		Subtotal:        charge.Subtotal,
		Discount:        charge.Discount,
		TotalPrice:      charge.Total,
		Status:          enums.OrderStatusPending,
		DeliveryDate:    now.Add(s.cfg.DeliveryLeadTime).Truncate(24 * time.Hour),
		DeliveryTime:    now.Format("15:04"),
		Items:           items,
	}

	// Free orders (only zero-priced dishes) move no money.
	charged := charge.Total.IsPositive()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if charged {
			if err := s.ledger.Debit(ctx, tx, customer.ID, charge.Total); err != nil {
				return err
			}
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if charged {
			if _, err := s.ledger.RecordPayment(ctx, tx, order.ID, customer.ID, charge.Total); err != nil {
				return err
			}
		}
		if err := s.notifier.Notify(ctx, tx, customer.ID, enums.NotificationTypeOrder,
			fmt.Sprintf("Order placed. $%s charged to your wallet.", charge.Total.StringFixed(2))); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: customer.ID, Role: customer.Role},
			Data: payloads.OrderPlacedEvent{
				OrderID:    order.ID,
				CustomerID: customer.ID,
				Subtotal:   charge.Subtotal,
				Discount:   charge.Discount,
				TotalPrice: charge.Total,
				ItemCount:  len(items),
				IsVIP:      customer.IsVIP,
				PlacedAt:   now,
			},
		})
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds) {
			s.warnInsufficientFunds(ctx, customer.ID, charge.Total)
		}
		return nil, err
	}

	s.metrics.OrderTransition(string(enums.OrderStatusPending))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"customer_id": customer.ID.String(),
		"total":       charge.Total.StringFixed(2),
	})
	s.logg.Info(logCtx, "order placed")
	return order, nil
}

// warnInsufficientFunds runs after the order transaction rolled back so the
// warning survives it.
func (s *service) warnInsufficientFunds(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) {
	reason := fmt.Sprintf("order of $%s declined for insufficient funds", amount.StringFixed(2))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.warner.Warn(ctx, tx, customerID, reason)
		return err
	})
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, customerID.String()), "record insufficient funds warning", err)
	}
}

func (s *service) priceItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.DishID)
	}
	dishes, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		dish, ok := dishes[in.DishID]
		if !ok || !dish.InStock {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "dish not available").
				WithDetails(map[string]any{"dishId": in.DishID.String()})
		}
		subtotal = subtotal.Add(dish.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
		items = append(items, models.OrderItem{
			MenuItemID: dish.ID,
			Name:       dish.Name,
			Quantity:   in.Quantity,
			UnitPrice:  dish.Price,
		})
	}
	return items, subtotal.Round(2), nil
}

func validatePlacement(input PlaceOrderInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range input.Items {
		if item.DishID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish id required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"index": i})
		}
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if input.TotalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	return nil
}

func (s *service) Accept(ctx context.Context, input TransitionInput) (*models.Order, error) {
	return s.advance(ctx, input, EventAccept, func(repo Repository) (bool, error) {
		return repo.Transition(ctx, input.OrderID, sourcesFor(EventAccept), enums.OrderStatusPreparing,
			Guard{}, map[string]any{"prepared_by": input.ActorID})
	}, "Your order is being prepared.")
}

func (s *service) Complete(ctx context.Context, input TransitionInput) (*models.Order, error) {
	return s.advance(ctx, input, EventComplete, func(repo Repository) (bool, error) {
		return repo.Transition(ctx, input.OrderID, sourcesFor(EventComplete), enums.OrderStatusReadyForDelivery,
			s.chefGuard(input), nil)
	}, "Your order is ready and waiting for a driver.")
}

func (s *service) Pickup(ctx context.Context, input TransitionInput) (*models.Order, error) {
	return s.advance(ctx, input, EventPickup, func(repo Repository) (bool, error) {
		return repo.ClaimForPickup(ctx, input.OrderID, input.ActorID)
	}, "Your order is out for delivery.")
}

func (s *service) Deliver(ctx context.Context, input TransitionInput) (*models.Order, error) {
	guard := Guard{RequireDeliveredBy: true, DeliveredBy: &input.ActorID}
	return s.advance(ctx, input, EventDeliver, func(repo Repository) (bool, error) {
		return repo.Transition(ctx, input.OrderID, sourcesFor(EventDeliver), enums.OrderStatusDelivered, guard, nil)
	}, "Your order has been delivered. Enjoy!")
}

// Reject cancels the order and refunds the amount that was charged.
func (s *service) Reject(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if err := validateTransition(input); err != nil {
		return nil, err
	}

	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, input.OrderID, true)
		if err != nil {
			return err
		}
		from = current.Status
		if _, ok := CanTransition(from, EventReject); !ok {
			return illegalTransition(current, EventReject)
		}
		if _, err := users.RequireAssignable(ctx, s.users.WithTx(tx), input.ActorID, assigneeRole(EventReject)); err != nil {
			return err
		}

		ok, err := repo.Transition(ctx, input.OrderID, []enums.OrderStatus{from}, enums.OrderStatusCancelled, s.chefGuard(input), nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return s.diagnose(ctx, repo, input.OrderID, EventReject)
		}
		if current.TotalPrice.IsPositive() {
			if err := s.ledger.Credit(ctx, tx, current.CustomerID, current.TotalPrice); err != nil {
				return err
			}
		}

		order, err = s.load(ctx, repo, input.OrderID, false)
		if err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, order.CustomerID, enums.NotificationTypeOrder,
			fmt.Sprintf("Your order was cancelled by the kitchen. $%s has been refunded.", order.TotalPrice.StringFixed(2))); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				From:        from,
				Refunded:    order.TotalPrice,
				CancelledBy: uuidPtr(input.ActorID),
				CancelledAt: s.now(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, order, from)
	return order, nil
}

type transitionFunc func(repo Repository) (bool, error)

// advance applies a forward transition, notifies the customer and records the
// outbox event in one transaction.
func (s *service) advance(ctx context.Context, input TransitionInput, event Event, apply transitionFunc, message string) (*models.Order, error) {
	if err := validateTransition(input); err != nil {
		return nil, err
	}

	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo, input.OrderID, false)
		if err != nil {
			return err
		}
		from = current.Status
		if _, err := users.RequireAssignable(ctx, s.users.WithTx(tx), input.ActorID, assigneeRole(event)); err != nil {
			return err
		}

		ok, err := apply(repo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return s.diagnose(ctx, repo, input.OrderID, event)
		}

		order, err = s.load(ctx, repo, input.OrderID, false)
		if err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, order.CustomerID, enums.NotificationTypeOrder, message); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventFor(event),
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(input),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				From:       from,
				To:         order.Status,
				ActorID:    uuidPtr(input.ActorID),
				ChangedAt:  s.now(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, order, from)
	return order, nil
}

// diagnose explains why a conditional update matched no row.
func (s *service) diagnose(ctx context.Context, repo Repository, orderID uuid.UUID, event Event) error {
	order, err := s.load(ctx, repo, orderID, false)
	if err != nil {
		return err
	}
	if event == EventDeliver && order.Status == enums.OrderStatusOutForDelivery && order.DeliveredBy == nil {
		return pkgerrors.New(pkgerrors.CodeNoDriverAssigned, "order has no assigned driver")
	}
	if _, ok := CanTransition(order.Status, event); ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to someone else").
			WithDetails(map[string]any{"status": order.Status, "action": event})
	}
	return illegalTransition(order, event)
}

func illegalTransition(order *models.Order, event Event) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("cannot %s an order that is %s", event, order.Status)).
		WithDetails(map[string]any{"status": order.Status, "action": event})
}

func (s *service) chefGuard(input TransitionInput) Guard {
	return Guard{PreparedBy: &input.ActorID}
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID, lock bool) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if lock {
		order, err = repo.FindByIDForUpdate(ctx, id)
	} else {
		order, err = repo.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) recordTransition(ctx context.Context, order *models.Order, from enums.OrderStatus) {
	s.metrics.OrderTransition(string(order.Status))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"from":     from,
		"to":       order.Status,
	})
	s.logg.Info(logCtx, "order status changed")
}

func (s *service) Get(ctx context.Context, orderID, viewerID uuid.UUID, role enums.UserRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.load(ctx, s.repo, orderID, false)
	if err != nil {
		return nil, err
	}
	if !canView(order, viewerID, role) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func canView(order *models.Order, viewerID uuid.UUID, role enums.UserRole) bool {
	switch role {
	case enums.UserRoleManager, enums.UserRoleAdmin, enums.UserRoleChef:
		return true
	case enums.UserRoleDriver:
		return order.DeliveredBy == nil || *order.DeliveredBy == viewerID
	default:
		return order.CustomerID == viewerID
	}
}

func (s *service) History(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.HistoryPageSize
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Build(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// ChefQueue lists the orders the kitchen still has to work on, oldest first.
func (s *service) ChefQueue(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListByStatuses(ctx, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPreparing})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list kitchen queue")
	}
	return rows, nil
}

func (s *service) DriverAssigned(ctx context.Context, driverID uuid.UUID) ([]models.Order, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	rows, err := s.repo.ListAssignedToDriver(ctx, driverID,
		[]enums.OrderStatus{enums.OrderStatusReadyForDelivery, enums.OrderStatusOutForDelivery})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	return rows, nil
}

func validateTransition(input TransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	return nil
}

func actorRef(input TransitionInput) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: input.ActorID, Role: input.Role}
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
