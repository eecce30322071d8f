package discipline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

const (
	CustomerDeactivationThreshold = 3
	VIPRevocationThreshold        = 2
	EmployeeDemotionThreshold     = 3
)

// Outcome reports the warning count after an increment and every consequence
// it triggered.
type Outcome struct {
	UserID      uuid.UUID `json:"userId"`
	Warnings    int       `json:"warnings"`
	Deactivated bool      `json:"deactivated"`
	LostVIP     bool      `json:"lostVip"`
	Demoted     bool      `json:"demoted"`
}

// Warner is what other domains call whenever a user earns a warning.
type Warner interface {
	Warn(ctx context.Context, tx *gorm.DB, userID uuid.UUID, reason string) (Outcome, error)
}

// Engine increments warnings and applies threshold discipline.
type Engine struct {
	users    *users.Repository
	notifier notifications.Notifier
	logg     *logger.Logger
}

func NewEngine(usersRepo *users.Repository, notifier notifications.Notifier, logg *logger.Logger) (*Engine, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Engine{users: usersRepo, notifier: notifier, logg: logg}, nil
}

// Warn must run inside the caller's transaction; thresholds are evaluated
// against the row as it stands after the increment.
func (e *Engine) Warn(ctx context.Context, tx *gorm.DB, userID uuid.UUID, reason string) (Outcome, error) {
	if userID == uuid.Nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	repo := e.users.WithTx(tx)

	user, err := repo.IncrementWarnings(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment warnings")
	}

	outcome, updates := evaluate(user)
	if len(updates) > 0 {
		if err := repo.UpdateFields(ctx, user.ID, updates); err != nil {
			return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply discipline")
		}
	}

	for _, msg := range messages(reason, outcome) {
		if err := e.notifier.Notify(ctx, tx, user.ID, enums.NotificationTypeWarning, msg); err != nil {
			return Outcome{}, err
		}
	}

	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"user_id":     user.ID.String(),
			"warnings":    outcome.Warnings,
			"deactivated": outcome.Deactivated,
			"lost_vip":    outcome.LostVIP,
			"demoted":     outcome.Demoted,
		})
		e.logg.Info(logCtx, "warning recorded")
	}
	return outcome, nil
}

func evaluate(user *models.User) (Outcome, map[string]any) {
	outcome := Outcome{UserID: user.ID, Warnings: user.Warnings}
	updates := map[string]any{}

	switch user.Role {
	case enums.UserRoleCustomer:
		if user.IsVIP && user.Warnings >= VIPRevocationThreshold {
			updates["is_vip"] = false
			outcome.LostVIP = true
		}
		if user.IsActive && user.Warnings >= CustomerDeactivationThreshold {
			updates["is_active"] = false
			outcome.Deactivated = true
		}
	case enums.UserRoleChef, enums.UserRoleDriver:
		if user.Warnings >= EmployeeDemotionThreshold {
			updates["role"] = enums.UserRoleDemoted
			outcome.Demoted = true
		}
	}
	return outcome, updates
}

func messages(reason string, outcome Outcome) []string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "policy violation"
	}
	out := []string{fmt.Sprintf("You received a warning (%d total): %s", outcome.Warnings, reason)}
	if outcome.LostVIP {
		out = append(out, "Your VIP status has been revoked after repeated warnings.")
	}
	if outcome.Deactivated {
		out = append(out, "Your account has been deactivated after repeated warnings.")
	}
	if outcome.Demoted {
		out = append(out, "You have been demoted and can no longer take assignments.")
	}
	return out
}
