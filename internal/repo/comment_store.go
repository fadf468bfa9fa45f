package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pinco/internal/models"
)

type CommentStore struct{ db *gorm.DB }

func NewCommentStore(db *gorm.DB) *CommentStore { return &CommentStore{db: db} }

func (s *CommentStore) Create(ctx context.Context, c *models.Comment) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// ListBySite — комментарии сайта со всеми связями для ответа виджета.
func (s *CommentStore) ListBySite(ctx context.Context, siteID uint) ([]models.Comment, error) {
	var out []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("replies.created_at asc") }).
		Preload("Replies.User").
		Preload("Views").
		Where("site_id = ?", siteID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListAll — сквозной список по всем сайтам (только для root-эндпоинта).
func (s *CommentStore) ListAll(ctx context.Context) ([]models.Comment, error) {
	var out []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Replies.User").
		Preload("Views").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetForSite: комментарий вне текущего сайта — как несуществующий.
func (s *CommentStore) GetForSite(ctx context.Context, id, siteID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Replies.User").
		Preload("Views").
		Where("id = ? AND site_id = ?", id, siteID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *CommentStore) Update(ctx context.Context, c *models.Comment) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *CommentStore) CreateReply(ctx context.Context, r *models.Reply) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// ---- отметки просмотра ----

// MarkViewed идемпотентен: повторная отметка не ошибка.
func (s *CommentStore) MarkViewed(ctx context.Context, commentID, userID uint) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommentView{CommentID: commentID, UserID: userID}).Error
}

func (s *CommentStore) Unview(ctx context.Context, commentID, userID uint) error {
	return s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentView{}).Error
}

// MarkAllViewed отмечает просмотренными все комментарии сайта для пользователя.
func (s *CommentStore) MarkAllViewed(ctx context.Context, siteID, userID uint) error {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("site_id = ?", siteID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.CommentView, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.CommentView{CommentID: id, UserID: userID})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
