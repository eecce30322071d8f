package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

// Service moves money in and out of user wallets. Debit and Credit take the
// caller's transaction so they commit or roll back with the order change.
type Service interface {
	Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error
	RecordPayment(ctx context.Context, tx *gorm.DB, orderID, payerID uuid.UUID, amount decimal.Decimal) (*models.Payment, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outbox.Emitter
	notifier notifications.Notifier
	metrics  *metrics.DomainMetrics
}

// NewService wires a ledger service. metrics may be nil.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, notifier notifications.Notifier, m *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, notifier: notifier, metrics: m}, nil
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	if err := validateAmount(userID, amount); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.DebitIfSufficient(ctx, userID, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
	}
	if ok {
		s.metrics.LedgerOutcome("debit", "ok")
		return nil
	}

	exists, err := repo.UserExists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.metrics.LedgerOutcome("debit", "insufficient_funds")
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance").
		WithDetails(map[string]any{"required": amount.StringFixed(2)})
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	if err := validateAmount(userID, amount); err != nil {
		return err
	}
	ok, err := s.repo.WithTx(tx).Credit(ctx, userID, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.metrics.LedgerOutcome("credit", "ok")
	return nil
}

func (s *service) RecordPayment(ctx context.Context, tx *gorm.DB, orderID, payerID uuid.UUID, amount decimal.Decimal) (*models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateAmount(payerID, amount); err != nil {
		return nil, err
	}
	payment := &models.Payment{OrderID: orderID, PaidBy: payerID, Amount: amount, Successful: true}
	if err := s.repo.WithTx(tx).CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	return payment, nil
}

func (s *service) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	amount = amount.Round(2)

	var balance decimal.Decimal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.Credit(ctx, tx, userID, amount); err != nil {
			return err
		}
		current, err := s.repo.WithTx(tx).Balance(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
		}
		balance = current

		if err := s.notifier.Notify(ctx, tx, userID, enums.NotificationTypeWallet,
			fmt.Sprintf("Deposit of $%s received. New balance: $%s", amount.StringFixed(2), current.StringFixed(2))); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletDeposit,
			AggregateType: enums.AggregateWallet,
			AggregateID:   userID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.WalletDepositedEvent{
				UserID:      userID,
				Amount:      amount,
				Balance:     current,
				DepositedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	return balance, nil
}

func validateAmount(userID uuid.UUID, amount decimal.Decimal) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
