package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

// Service exposes read models over user accounts.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	DriverProfile(ctx context.Context, driverID uuid.UUID) (*DriverProfile, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) DriverProfile(ctx context.Context, driverID uuid.UUID) (*DriverProfile, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	user, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	if user.Role != enums.UserRoleDriver {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}

	deliveries, compliments, complaints, err := s.repo.DriverStats(ctx, driverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver stats")
	}
	return &DriverProfile{
		DriverID:        user.ID,
		Name:            user.Name,
		Salary:          user.Salary,
		Warnings:        user.Warnings,
		TotalDeliveries: deliveries,
		Compliments:     compliments,
		Complaints:      complaints,
	}, nil
}

// RequireAssignable loads the employee an assignment goes to and fails with
// FORBIDDEN unless the account is active and currently holds role. The role is
// read from the database, so a demotion takes effect before the next token
// refresh.
func RequireAssignable(ctx context.Context, repo *Repository, userID uuid.UUID, role enums.UserRole) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "employee not found").
				WithDetails(map[string]any{"userId": userID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	if !user.IsActive || user.Role != role {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("only active %s accounts can take this assignment", role)).
			WithDetails(map[string]any{"userId": user.ID.String(), "role": user.Role, "isActive": user.IsActive})
	}
	return user, nil
}
