package repository

import (
	"context"

	"jsr_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.DB.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&category).Error
	return &category, err
}

// FindByName 名称不区分大小写
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	return &category, err
}

func (r *CategoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.DB.WithContext(ctx).Save(category).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *CategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Category{}).Count(&count).Error
	return count, err
}

type ResourceTypeRepository struct {
	DB *gorm.DB
}

func NewResourceTypeRepository(db *gorm.DB) *ResourceTypeRepository {
	return &ResourceTypeRepository{DB: db}
}

func (r *ResourceTypeRepository) Create(ctx context.Context, t *model.ResourceType) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *ResourceTypeRepository) FindAll(ctx context.Context) ([]model.ResourceType, error) {
	var types []model.ResourceType
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *ResourceTypeRepository) FindByID(ctx context.Context, id string) (*model.ResourceType, error) {
	var t model.ResourceType
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *ResourceTypeRepository) FindByName(ctx context.Context, name string) (*model.ResourceType, error) {
	var t model.ResourceType
	err := r.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&t).Error
	return &t, err
}

func (r *ResourceTypeRepository) Update(ctx context.Context, t *model.ResourceType) error {
	return r.DB.WithContext(ctx).Save(t).Error
}

func (r *ResourceTypeRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.ResourceType{}).Error
}
