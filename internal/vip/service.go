package vip

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	Request(ctx context.Context, customerID uuid.UUID) (*models.VIPRequest, error)
	ListPending(ctx context.Context) ([]PendingView, error)
	Approve(ctx context.Context, requestID, managerID uuid.UUID) (*models.VIPRequest, error)
	Reject(ctx context.Context, requestID, managerID uuid.UUID) (*models.VIPRequest, error)
	Demote(ctx context.Context, customerID, managerID uuid.UUID) error
}

type service struct {
	repo     *Repository
	users    *users.Repository
	tx       txRunner
	notifier notifications.Notifier
}

func NewService(repo *Repository, usersRepo *users.Repository, tx txRunner, notifier notifications.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vip repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, users: usersRepo, tx: tx, notifier: notifier}, nil
}

// Request files a VIP application. A customer holds at most one pending
// request and VIPs cannot apply again.
func (s *service) Request(ctx context.Context, customerID uuid.UUID) (*models.VIPRequest, error) {
	var out *models.VIPRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.loadCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if customer.IsVIP {
			return pkgerrors.New(pkgerrors.CodeConflict, "already a VIP")
		}

		repo := s.repo.WithTx(tx)
		pending, err := repo.HasPending(ctx, customer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
		}
		if pending {
			return pkgerrors.New(pkgerrors.CodeConflict, "a VIP request is already pending")
		}

		req := &models.VIPRequest{CustomerID: customer.ID, Status: enums.VIPRequestPending}
		if err := repo.Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vip request")
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListPending(ctx context.Context) ([]PendingView, error) {
	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vip requests")
	}
	return rows, nil
}

func (s *service) Approve(ctx context.Context, requestID, managerID uuid.UUID) (*models.VIPRequest, error) {
	return s.decide(ctx, requestID, managerID, enums.VIPRequestApproved)
}

func (s *service) Reject(ctx context.Context, requestID, managerID uuid.UUID) (*models.VIPRequest, error) {
	return s.decide(ctx, requestID, managerID, enums.VIPRequestRejected)
}

func (s *service) decide(ctx context.Context, requestID, managerID uuid.UUID, status enums.VIPRequestStatus) (*models.VIPRequest, error) {
	var out *models.VIPRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vip request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vip request")
		}

		ok, err := repo.Decide(ctx, req.ID, status, managerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide vip request")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "vip request already decided").
				WithDetails(map[string]any{"status": req.Status})
		}

		msg := "Your VIP request was declined."
		if status == enums.VIPRequestApproved {
			if err := s.users.WithTx(tx).UpdateFields(ctx, req.CustomerID, map[string]any{"is_vip": true}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant vip")
			}
			msg = "Welcome to VIP! You now receive 5% off every order."
		}
		if err := s.notifier.Notify(ctx, tx, req.CustomerID, enums.NotificationTypeVIP, msg); err != nil {
			return err
		}

		req.Status = status
		req.DecidedBy = &managerID
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Demote removes VIP standing from a customer.
func (s *service) Demote(ctx context.Context, customerID, managerID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.loadCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !customer.IsVIP {
			return pkgerrors.New(pkgerrors.CodeForbidden, "customer is not a VIP")
		}
		if err := s.users.WithTx(tx).UpdateFields(ctx, customer.ID, map[string]any{"is_vip": false}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke vip")
		}
		return s.notifier.Notify(ctx, tx, customer.ID, enums.NotificationTypeVIP, "Your VIP status has been removed by a manager.")
	})
}

func (s *service) loadCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (*models.User, error) {
	customer, err := s.users.WithTx(tx).FindByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.Role != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can hold VIP status")
	}
	return customer, nil
}
