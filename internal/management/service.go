package management

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

var (
	raiseFactor = decimal.RequireFromString("1.10")
	cutFactor   = decimal.RequireFromString("0.90")

	// Roles a manager hires, pays and fires.
	staffRoles = []enums.UserRole{enums.UserRoleChef, enums.UserRoleDriver, enums.UserRoleDemoted}
)

const deregisterReason = "Deregistered by manager"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ComplaintCounter reports complaints still waiting on a manager.
type ComplaintCounter interface {
	CountOpenComplaints(ctx context.Context) (int64, error)
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Employees(ctx context.Context) ([]users.UserDTO, error)
	Customers(ctx context.Context) ([]users.UserDTO, error)
	Promote(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error)
	Demote(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error)
	Fire(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error)
	Deregister(ctx context.Context, managerID, customerID uuid.UUID) (*users.UserDTO, error)
}

type ServiceParams struct {
	Repo       *Repository
	Users      *users.Repository
	Complaints ComplaintCounter
	Tx         txRunner
	Notifier   notifications.Notifier
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	users      *users.Repository
	complaints ComplaintCounter
	tx         txRunner
	notifier   notifications.Notifier
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("management repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Complaints == nil {
		return nil, fmt.Errorf("complaint counter required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		complaints: params.Complaints,
		tx:         params.Tx,
		notifier:   params.Notifier,
		logg:       logg,
	}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var (
		out Stats
		err error
	)
	if out.TotalOrders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	if out.TotalRevenue, err = s.repo.Revenue(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	if out.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	if out.EmployeeCount, err = s.users.CountByRoles(ctx, staffRoles, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count employees")
	}
	if out.OpenComplaints, err = s.complaints.CountOpenComplaints(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count complaints")
	}
	if out.OrdersWithPendingBid, err = s.repo.CountOrdersWithPendingBids(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending bids")
	}
	if out.PendingVIPRequests, err = s.repo.CountPendingVIPRequests(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count vip requests")
	}
	return &out, nil
}

func (s *service) Employees(ctx context.Context) ([]users.UserDTO, error) {
	return s.list(ctx, staffRoles)
}

func (s *service) Customers(ctx context.Context) ([]users.UserDTO, error) {
	return s.list(ctx, []enums.UserRole{enums.UserRoleCustomer})
}

func (s *service) list(ctx context.Context, roles []enums.UserRole) ([]users.UserDTO, error) {
	rows, err := s.users.ListByRoles(ctx, roles)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *users.FromModel(&rows[i]))
	}
	return out, nil
}

// Promote raises the employee's salary by ten percent.
func (s *service) Promote(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error) {
	return s.adjustSalary(ctx, managerID, employeeID, raiseFactor, "Congratulations, you have been promoted. Your salary is now %s.")
}

// Demote cuts the employee's salary by ten percent.
func (s *service) Demote(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error) {
	return s.adjustSalary(ctx, managerID, employeeID, cutFactor, "Your salary has been reduced to %s.")
}

func (s *service) adjustSalary(ctx context.Context, managerID, employeeID uuid.UUID, factor decimal.Decimal, template string) (*users.UserDTO, error) {
	return s.mutate(ctx, managerID, employeeID, isStaff, func(_ *gorm.DB, user *models.User) (map[string]any, string, error) {
		salary := user.Salary.Mul(factor).Round(2)
		return map[string]any{"salary": salary}, fmt.Sprintf(template, salary.StringFixed(2)), nil
	})
}

// Fire deactivates the employee's account.
func (s *service) Fire(ctx context.Context, managerID, employeeID uuid.UUID) (*users.UserDTO, error) {
	return s.mutate(ctx, managerID, employeeID, isStaff, func(_ *gorm.DB, user *models.User) (map[string]any, string, error) {
		if !user.IsActive {
			return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "employee already inactive")
		}
		return map[string]any{"is_active": false}, "Your employment has been terminated.", nil
	})
}

// Deregister deactivates the customer and blacklists the email so it cannot
// be used to sign up again.
func (s *service) Deregister(ctx context.Context, managerID, customerID uuid.UUID) (*users.UserDTO, error) {
	isCustomer := func(role enums.UserRole) bool { return role == enums.UserRoleCustomer }
	return s.mutate(ctx, managerID, customerID, isCustomer, func(tx *gorm.DB, user *models.User) (map[string]any, string, error) {
		repo := s.users.WithTx(tx)
		listed, err := repo.IsBlacklisted(ctx, user.Email)
		if err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check blacklist")
		}
		if !listed {
			entry := &models.Blacklist{
				UserID:    user.ID,
				Name:      user.Name,
				Email:     strings.ToLower(user.Email),
				Reason:    deregisterReason,
				CreatedBy: &managerID,
			}
			if err := repo.AddToBlacklist(ctx, entry); err != nil {
				return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "blacklist customer")
			}
		}
		return map[string]any{"is_active": false, "is_vip": false}, "Your account has been closed by the restaurant.", nil
	})
}

type mutation func(tx *gorm.DB, user *models.User) (updates map[string]any, message string, err error)

func isStaff(role enums.UserRole) bool {
	for _, r := range staffRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *service) mutate(ctx context.Context, managerID, userID uuid.UUID, allowed func(enums.UserRole) bool, fn mutation) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var out *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if !allowed(user.Role) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "action not allowed for this role").
				WithDetails(map[string]any{"role": user.Role})
		}

		updates, message, err := fn(tx, user)
		if err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, user.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		if err := s.notifier.Notify(ctx, tx, user.ID, enums.NotificationTypeAccount, message); err != nil {
			return err
		}
		out, err = repo.FindByID(ctx, user.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"manager_id": managerID.String(),
		"user_id":    userID.String(),
	})
	s.logg.Info(logCtx, "account updated by manager")
	return users.FromModel(out), nil
}
