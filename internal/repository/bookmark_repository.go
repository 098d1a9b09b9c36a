package repository

import (
	"context"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark *model.Bookmark) error {
	return r.DB.WithContext(ctx).Create(bookmark).Error
}

func (r *BookmarkRepository) Exists(ctx context.Context, resourceID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Bookmark{}).
		Where("resource_id = ? AND user_id = ?", resourceID, userID).
		Count(&count).Error
	return count > 0, err
}

// Delete 返回是否删除了记录
func (r *BookmarkRepository) Delete(ctx context.Context, resourceID, userID string) (bool, error) {
	result := r.DB.WithContext(ctx).
		Where("resource_id = ? AND user_id = ?", resourceID, userID).
		Delete(&model.Bookmark{})
	return result.RowsAffected > 0, result.Error
}

// FindResourceIDs 单次查询用户在一组资源中已收藏的资源 ID
func (r *BookmarkRepository) FindResourceIDs(ctx context.Context, userID string, resourceIDs []string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Bookmark{}).
		Where("user_id = ? AND resource_id IN ?", userID, resourceIDs).
		Pluck("resource_id", &ids).Error
	return ids, err
}

// FindByUser 用户收藏列表，仅包含已审核资源，可按收费类型过滤
func (r *BookmarkRepository) FindByUser(ctx context.Context, userID string, pricingTypes []model.PricingType, page, limit int) ([]model.Bookmark, int64, error) {
	var bookmarks []model.Bookmark
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Bookmark{}).
		Joins("JOIN resources ON resources.id = bookmarks.resource_id").
		Where("bookmarks.user_id = ? AND resources.status = ?", userID, model.StatusApproved)
	if len(pricingTypes) > 0 {
		query = query.Where("resources.pricing_type IN ?", pricingTypes)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Bookmark{}, 0, nil
	}

	err := query.
		Preload("Resource").
		Preload("Resource.Category").
		Preload("Resource.Type").
		Order("bookmarks.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookmarks).Error
	return bookmarks, total, err
}
