package chat

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

// Repository persists the knowledge base, chat exchanges and their ratings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SearchKnowledge(ctx context.Context, query string) (*models.KnowledgeEntry, error)
	CreateKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
	FindKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error)
	UpdateKnowledge(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPendingKnowledge(ctx context.Context) ([]PendingKnowledge, error)
	RecomputeKnowledgeStats(ctx context.Context, id uuid.UUID) error
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	FindMessage(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error)
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error)
	CreateRating(ctx context.Context, rating *models.ChatRating) error
	FindRatingForUpdate(ctx context.Context, id uuid.UUID) (*models.ChatRating, error)
	UpdateRatingReview(ctx context.Context, id uuid.UUID, status enums.RatingReviewStatus, reviewer uuid.UUID, at time.Time) (bool, error)
	ListFlagged(ctx context.Context) ([]FlaggedRating, error)
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

// SearchKnowledge matches the whole phrase against stored questions first,
// then the first keyword against questions and answers. The best rated live
// entry wins; a miss returns (nil, nil).
func (r *repository) SearchKnowledge(ctx context.Context, query string) (*models.KnowledgeEntry, error) {
	phrase := strings.ToLower(strings.TrimSpace(query))
	if phrase == "" {
		return nil, nil
	}

	entry, err := r.bestMatch(ctx, "LOWER(question) LIKE ?", like(phrase))
	if err != nil || entry != nil {
		return entry, err
	}

	keyword := strings.Fields(phrase)[0]
	return r.bestMatch(ctx, "LOWER(question) LIKE ? OR LOWER(answer) LIKE ?", like(keyword), like(keyword))
}

func (r *repository) bestMatch(ctx context.Context, cond string, args ...any) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	err := r.DB(ctx).
		Where("is_active = ? AND is_approved = ?", true, true).
		Where(cond, args...).
		Order("avg_rating DESC").
		Order("created_at ASC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func like(term string) string {
	return "%" + term + "%"
}

func (r *repository) CreateKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *repository) FindKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	if err := r.DB(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpdateKnowledge(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).Model(&models.KnowledgeEntry{}).Where("id = ?", id).Updates(updates).Error
}

// PendingKnowledge is an unapproved entry together with its author's name.
type PendingKnowledge struct {
	ID         uuid.UUID  `gorm:"column:id" json:"id"`
	Question   string     `gorm:"column:question" json:"question"`
	Answer     string     `gorm:"column:answer" json:"answer"`
	Category   *string    `gorm:"column:category" json:"category,omitempty"`
	CreatedBy  *uuid.UUID `gorm:"column:created_by" json:"createdBy,omitempty"`
	AuthorName *string    `gorm:"column:author_name" json:"authorName,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"createdAt"`
}

func (r *repository) ListPendingKnowledge(ctx context.Context) ([]PendingKnowledge, error) {
	var rows []PendingKnowledge
	err := r.DB(ctx).
		Table("knowledge_base AS kb").
		Select("kb.id, kb.question, kb.answer, kb.category, kb.created_by, u.name AS author_name, kb.created_at").
		Joins("LEFT JOIN users AS u ON u.id = kb.created_by").
		Where("kb.is_approved = ? AND kb.is_active = ?", false, true).
		Order("kb.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// RecomputeKnowledgeStats refreshes avg_rating and total_ratings from every
// rating left on chats the entry answered.
func (r *repository) RecomputeKnowledgeStats(ctx context.Context, id uuid.UUID) error {
	var agg struct {
		Average float64 `gorm:"column:average"`
		Total   int     `gorm:"column:total"`
	}
	err := r.DB(ctx).
		Table("chat_ratings AS cr").
		Select("COALESCE(AVG(cr.rating), 0) AS average, COUNT(*) AS total").
		Joins("JOIN chat_messages AS ch ON ch.id = cr.chat_id").
		Where("ch.kb_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return r.UpdateKnowledge(ctx, id, map[string]any{
		"avg_rating":    agg.Average,
		"total_ratings": agg.Total,
	})
}

func (r *repository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.DB(ctx).Create(msg).Error
}

func (r *repository) FindMessage(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := r.DB(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *repository) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateRating(ctx context.Context, rating *models.ChatRating) error {
	return r.DB(ctx).Create(rating).Error
}

func (r *repository) FindRatingForUpdate(ctx context.Context, id uuid.UUID) (*models.ChatRating, error) {
	var rating models.ChatRating
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rating, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// UpdateRatingReview records a decision on a still pending flagged rating.
func (r *repository) UpdateRatingReview(ctx context.Context, id uuid.UUID, status enums.RatingReviewStatus, reviewer uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.ChatRating{}).
		Where("id = ? AND is_flagged = ? AND review_status = ?", id, true, enums.RatingReviewPending).
		Updates(map[string]any{
			"review_status": status,
			"reviewed_by":   reviewer,
			"reviewed_at":   at,
		})
	return res.RowsAffected == 1, res.Error
}

// FlaggedRating is a zero score awaiting review, joined with the exchange it
// rated and the knowledge entry that produced the answer, if any.
type FlaggedRating struct {
	RatingID          uuid.UUID  `gorm:"column:rating_id" json:"ratingId"`
	ChatID            uuid.UUID  `gorm:"column:chat_id" json:"chatId"`
	Rating            int        `gorm:"column:rating" json:"rating"`
	Feedback          *string    `gorm:"column:feedback" json:"feedback,omitempty"`
	Question          string     `gorm:"column:question" json:"question"`
	Answer            string     `gorm:"column:answer" json:"answer"`
	KnowledgeID       *uuid.UUID `gorm:"column:kb_id" json:"kbId,omitempty"`
	KnowledgeQuestion *string    `gorm:"column:kb_question" json:"kbQuestion,omitempty"`
	AuthorID          *uuid.UUID `gorm:"column:author_id" json:"authorId,omitempty"`
	AuthorName        *string    `gorm:"column:author_name" json:"authorName,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"createdAt"`
}

func (r *repository) ListFlagged(ctx context.Context) ([]FlaggedRating, error) {
	var rows []FlaggedRating
	err := r.DB(ctx).
		Table("chat_ratings AS cr").
		Select(`cr.id AS rating_id, cr.chat_id, cr.rating, cr.feedback,
			ch.message AS question, ch.response AS answer,
			kb.id AS kb_id, kb.question AS kb_question,
			kb.created_by AS author_id, u.name AS author_name, cr.created_at`).
		Joins("JOIN chat_messages AS ch ON ch.id = cr.chat_id").
		Joins("LEFT JOIN knowledge_base AS kb ON kb.id = ch.kb_id").
		Joins("LEFT JOIN users AS u ON u.id = kb.created_by").
		Where("cr.is_flagged = ? AND cr.review_status = ?", true, enums.RatingReviewPending).
		Order("cr.created_at DESC").
		Scan(&rows).Error
	return rows, err
}
