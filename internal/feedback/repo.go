package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sdfoods/restaurant-backend/internal/repo"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

// Repository persists complaints and compliments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.Feedback) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.FeedbackStatus, to enums.FeedbackStatus, reviewedBy *uuid.UUID) (bool, error)
	List(ctx context.Context, filter listFilter) ([]models.Feedback, error)
	CountOpenComplaints(ctx context.Context) (int64, error)
}

type listFilter struct {
	FromUserID   *uuid.UUID
	TargetUserID *uuid.UUID
	Status       *enums.FeedbackStatus
	Cursor       *pagination.Cursor
	Limit        int
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, row *models.Feedback) error {
	return r.DB(ctx).Create(row).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var row models.Feedback
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var row models.Feedback
	err := r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.FeedbackStatus, to enums.FeedbackStatus, reviewedBy *uuid.UUID) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	if reviewedBy != nil {
		updates["reviewed_by"] = *reviewedBy
	}
	result := r.DB(ctx).
		Model(&models.Feedback{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter listFilter) ([]models.Feedback, error) {
	query := r.DB(ctx).Model(&models.Feedback{})
	if filter.FromUserID != nil {
		query = query.Where("from_user_id = ?", *filter.FromUserID)
	}
	if filter.TargetUserID != nil {
		query = query.Where("target_user_id = ?", *filter.TargetUserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var rows []models.Feedback
	err := pagination.NewestFirst(query, filter.Cursor, filter.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) CountOpenComplaints(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Feedback{}).
		Where("type = ? AND status IN ?", enums.FeedbackTypeComplaint,
			[]enums.FeedbackStatus{enums.FeedbackStatusOpen, enums.FeedbackStatusUnderReview}).
		Count(&count).Error
	return count, err
}
