package repository

import (
	"context"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Type").
		Preload("Creator", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar_url")
		})
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.DB.WithContext(ctx).Create(resource).Error
}

func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&resource).Error
	return &resource, err
}

// FindByIDWithRelations 附带分类、类型与提交者
func (r *ResourceRepository) FindByIDWithRelations(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := withRelations(r.DB.WithContext(ctx)).Where("resources.id = ?", id).First(&resource).Error
	return &resource, err
}

// ExistsTx 在事务内检查资源是否存在
func (r *ResourceRepository) ExistsTx(tx *gorm.DB, id string) (bool, error) {
	var count int64
	err := tx.Model(&model.Resource{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ResourceRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.ExistsTx(r.DB.WithContext(ctx), id)
}

// FindWithPagination 按查询条件分页，返回当前页与总数
func (r *ResourceRepository) FindWithPagination(ctx context.Context, q *ResourceQuery) ([]model.Resource, int64, error) {
	var resources []model.Resource
	var total int64

	filtered := q.Apply(r.DB.WithContext(ctx).Model(&model.Resource{})).Session(&gorm.Session{})

	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Resource{}, 0, nil
	}

	err := withRelations(q.Order(filtered)).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&resources).Error
	return resources, total, err
}

// FindAggregates 只取 id 与票数，单次查询
func (r *ResourceRepository) FindAggregates(ctx context.Context, ids []string) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.DB.WithContext(ctx).
		Select("id", "upvotes", "downvotes").
		Where("id IN ?", ids).
		Find(&resources).Error
	return resources, err
}

// UpdateFields 更新指定字段后重新加载
func (r *ResourceRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*model.Resource, error) {
	result := r.DB.WithContext(ctx).Model(&model.Resource{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByIDWithRelations(ctx, id)
}

// AdjustVotes 原子地增减票数，仅在投票事务中调用
func (r *ResourceRepository) AdjustVotes(tx *gorm.DB, id string, upDelta, downDelta int64) error {
	updates := map[string]interface{}{}
	if upDelta != 0 {
		updates["upvotes"] = gorm.Expr("upvotes + ?", upDelta)
	}
	if downDelta != 0 {
		updates["downvotes"] = gorm.Expr("downvotes + ?", downDelta)
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.Resource{}).Where("id = ?", id).UpdateColumns(updates).Error
}

// LoadAggregateTx 读取事务内最新的票数
func (r *ResourceRepository) LoadAggregateTx(tx *gorm.DB, id string) (model.VoteAggregate, error) {
	var resource model.Resource
	err := tx.Select("id", "upvotes", "downvotes").Where("id = ?", id).First(&resource).Error
	return resource.Votes, err
}

// SetAggregate 直接写入票数，用于对账修复
func (r *ResourceRepository) SetAggregate(ctx context.Context, id string, agg model.VoteAggregate) error {
	return r.DB.WithContext(ctx).Model(&model.Resource{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"upvotes":   agg.Upvotes,
		"downvotes": agg.Downvotes,
	}).Error
}

// AllAggregates 全部资源的票数，对账使用
func (r *ResourceRepository) AllAggregates(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.DB.WithContext(ctx).Select("id", "upvotes", "downvotes").Order("id").Find(&resources).Error
	return resources, err
}

func (r *ResourceRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Resource{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *ResourceRepository) CountByType(ctx context.Context, typeID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Resource{}).Where("type_id = ?", typeID).Count(&count).Error
	return count, err
}

// Delete 删除资源及其投票、收藏、评论
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.Vote{}, &model.Bookmark{}, &model.Comment{}} {
			if err := tx.Where("resource_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&model.Resource{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
