package reservations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

const DefaultDurationMinutes = 90

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type CreateInput struct {
	CustomerID      uuid.UUID
	TableID         uuid.UUID
	Date            time.Time
	Time            string
	DurationMinutes int
	Guests          int
	SpecialRequest  string
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID, actorID uuid.UUID, role enums.UserRole) (*models.Reservation, error)
	List(ctx context.Context, viewerID uuid.UUID, role enums.UserRole) ([]View, error)
	Tables(ctx context.Context, availableOnly bool) ([]models.RestaurantTable, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	notifier notifications.Notifier
}

func NewService(repo *Repository, tx txRunner, notifier notifications.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier}, nil
}

// Create books a table. The table is claimed with a conditional update in the
// same transaction as the insert so two bookings cannot share it.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reservation, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	var out *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		table, err := repo.FindTable(ctx, input.TableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load table")
		}
		if input.Guests > table.SeatingCapacity {
			return pkgerrors.New(pkgerrors.CodeValidation, "party is larger than the table").
				WithDetails(map[string]any{"seatingCapacity": table.SeatingCapacity, "guests": input.Guests})
		}

		claimed, err := repo.ClaimTable(ctx, table.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim table")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "table not available")
		}

		reservation := &models.Reservation{
			CustomerID:      input.CustomerID,
			TableID:         table.ID,
			ReservationDate: input.Date,
			ReservationTime: input.Time,
			DurationMinutes: input.DurationMinutes,
			Guests:          input.Guests,
			Status:          enums.ReservationStatusPending,
		}
		if input.SpecialRequest != "" {
			reservation.SpecialRequest = &input.SpecialRequest
		}
		if err := repo.Create(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}

		msg := fmt.Sprintf("Table %d is reserved for %s at %s.", table.TableNumber, input.Date.Format("2006-01-02"), input.Time)
		if err := s.notifier.Notify(ctx, tx, input.CustomerID, enums.NotificationTypeReservation, msg); err != nil {
			return err
		}
		out = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateCreate(input *CreateInput) error {
	if input.CustomerID == uuid.Nil || input.TableID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id and table id required")
	}
	if input.Date.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation date required")
	}
	if !clockPattern.MatchString(input.Time) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reservation time must be HH:MM")
	}
	if input.Guests <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "number of guests must be positive")
	}
	if input.DurationMinutes < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration must not be negative")
	}
	if input.DurationMinutes == 0 {
		input.DurationMinutes = DefaultDurationMinutes
	}
	y, m, d := input.Date.UTC().Date()
	input.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	input.SpecialRequest = strings.TrimSpace(input.SpecialRequest)
	return nil
}

// Cancel releases the table. Customers may cancel their own bookings and
// staff may cancel any.
func (s *service) Cancel(ctx context.Context, reservationID, actorID uuid.UUID, role enums.UserRole) (*models.Reservation, error) {
	var out *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindForUpdate(ctx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
		}
		if reservation.CustomerID != actorID && !role.IsStaff() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}

		ok, err := repo.Cancel(ctx, reservation.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "reservation already cancelled")
		}
		if err := repo.ReleaseTable(ctx, reservation.TableID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release table")
		}
		if actorID != reservation.CustomerID {
			if err := s.notifier.Notify(ctx, tx, reservation.CustomerID, enums.NotificationTypeReservation, "Your reservation was cancelled by the restaurant."); err != nil {
				return err
			}
		}
		reservation.Status = enums.ReservationStatusCancelled
		out = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) List(ctx context.Context, viewerID uuid.UUID, role enums.UserRole) ([]View, error) {
	var filter *uuid.UUID
	if !role.IsStaff() {
		filter = &viewerID
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return rows, nil
}

func (s *service) Tables(ctx context.Context, availableOnly bool) ([]models.RestaurantTable, error) {
	tables, err := s.repo.ListTables(ctx, availableOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return tables, nil
}
