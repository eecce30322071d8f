package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

// ErrNoRowsUpdated is returned by conditional updates that matched nothing.
var ErrNoRowsUpdated = errors.New("no rows updated")

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository running inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDForUpdate loads a user and locks the row until the transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin matches either the username or the email address.
func (r *Repository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	err := r.DB(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByRole returns the longest-serving active user holding role.
func (r *Repository) FindActiveByRole(ctx context.Context, role enums.UserRole) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("created_at ASC").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRoles returns users holding any of the roles, newest first.
func (r *Repository) ListByRoles(ctx context.Context, roles []enums.UserRole) ([]models.User, error) {
	var rows []models.User
	err := r.DB(ctx).
		Where("role IN ?", roles).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CountByRoles counts users holding any of the roles. activeOnly skips deactivated accounts.
func (r *Repository) CountByRoles(ctx context.Context, roles []enums.UserRole, activeOnly bool) (int64, error) {
	query := r.DB(ctx).Model(&models.User{}).Where("role IN ?", roles)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// UsernameOrEmailTaken reports whether either identifier is already registered.
func (r *Repository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	return r.Exists(ctx, &models.User{}, "username = ? OR email = ?", strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email)))
}

// IncrementWarnings adds one warning and returns the fresh row.
func (r *Repository) IncrementWarnings(ctx context.Context, id uuid.UUID) (*models.User, error) {
	result := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"warnings":   gorm.Expr("warnings + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// UpdateFields applies updates to the user and fails with ErrNoRowsUpdated
// when the row does not exist.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	result := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}
	return nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// IsBlacklisted reports whether the email belongs to a deregistered customer.
func (r *Repository) IsBlacklisted(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, &models.Blacklist{}, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// AddToBlacklist records a deregistered customer.
func (r *Repository) AddToBlacklist(ctx context.Context, entry *models.Blacklist) error {
	return r.DB(ctx).Create(entry).Error
}

// DriverStats counts completed deliveries and feedback received by a driver.
func (r *Repository) DriverStats(ctx context.Context, driverID uuid.UUID) (deliveries, compliments, complaints int64, err error) {
	if err = r.DB(ctx).Model(&models.Order{}).
		Where("delivered_by = ? AND status = ?", driverID, enums.OrderStatusDelivered).
		Count(&deliveries).Error; err != nil {
		return
	}
	if err = r.DB(ctx).Model(&models.Feedback{}).
		Where("target_user_id = ? AND type = ?", driverID, enums.FeedbackTypeCompliment).
		Count(&compliments).Error; err != nil {
		return
	}
	err = r.DB(ctx).Model(&models.Feedback{}).
		Where("target_user_id = ? AND type = ?", driverID, enums.FeedbackTypeComplaint).
		Count(&complaints).Error
	return
}
