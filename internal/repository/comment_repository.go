package repository

import (
	"context"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if err := r.DB.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "avatar_url") }).
		Where("id = ?", comment.ID).
		First(comment).Error
}

// FindByResource 按时间倒序分页
func (r *CommentRepository) FindByResource(ctx context.Context, resourceID string, page, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("resource_id = ?", resourceID).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Comment{}, 0, nil
	}

	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "avatar_url") }).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&comments).Error
	return comments, total, err
}
