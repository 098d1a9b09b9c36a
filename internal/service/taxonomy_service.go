package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"

	"gorm.io/gorm"
)

const (
	maxTaxonomyNameLength        = 50
	maxTaxonomyDescriptionLength = 500
)

// TaxonomyRequest 分类与资源类型共用的请求体
type TaxonomyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

func (r *TaxonomyRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.IconURL = strings.TrimSpace(r.IconURL)
	if r.Name == "" {
		return util.ErrMissingFields
	}
	if utf8.RuneCountInString(r.Name) > maxTaxonomyNameLength || utf8.RuneCountInString(r.Description) > maxTaxonomyDescriptionLength {
		return util.ErrFieldTooLong
	}
	return nil
}

// TaxonomyService 分类与资源类型；被资源引用时禁止删除
type TaxonomyService struct {
	CategoryRepo *repository.CategoryRepository
	TypeRepo     *repository.ResourceTypeRepository
	ResourceRepo *repository.ResourceRepository
}

func NewTaxonomyService(categoryRepo *repository.CategoryRepository, typeRepo *repository.ResourceTypeRepository, resourceRepo *repository.ResourceRepository) *TaxonomyService {
	return &TaxonomyService{CategoryRepo: categoryRepo, TypeRepo: typeRepo, ResourceRepo: resourceRepo}
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.CategoryRepo.FindAll(ctx)
}

func (s *TaxonomyService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.CategoryRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCategoryNotFound
	}
	return category, err
}

// categoryNameTaken 名称被其他分类占用（不区分大小写）
func (s *TaxonomyService) categoryNameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	existing, err := s.CategoryRepo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, req TaxonomyRequest) (*model.Category, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	taken, err := s.categoryNameTaken(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateCategory
	}

	category := &model.Category{Name: req.Name, Description: req.Description, IconURL: req.IconURL}
	if err := s.CategoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateCategory
		}
		return nil, err
	}
	return category, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id string, req TaxonomyRequest) (*model.Category, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.categoryNameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateCategory
	}

	category.Name = req.Name
	category.Description = req.Description
	category.IconURL = req.IconURL
	if err := s.CategoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateCategory
		}
		return nil, err
	}
	return category, nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	inUse, err := s.ResourceRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return util.ErrCategoryInUse
	}
	return s.CategoryRepo.Delete(ctx, id)
}

func (s *TaxonomyService) ListTypes(ctx context.Context) ([]model.ResourceType, error) {
	return s.TypeRepo.FindAll(ctx)
}

func (s *TaxonomyService) GetType(ctx context.Context, id string) (*model.ResourceType, error) {
	t, err := s.TypeRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTypeNotFound
	}
	return t, err
}

func (s *TaxonomyService) typeNameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	existing, err := s.TypeRepo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

func (s *TaxonomyService) CreateType(ctx context.Context, req TaxonomyRequest) (*model.ResourceType, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	taken, err := s.typeNameTaken(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateType
	}

	t := &model.ResourceType{Name: req.Name, Description: req.Description}
	if err := s.TypeRepo.Create(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateType
		}
		return nil, err
	}
	return t, nil
}

func (s *TaxonomyService) UpdateType(ctx context.Context, id string, req TaxonomyRequest) (*model.ResourceType, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	t, err := s.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.typeNameTaken(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateType
	}

	t.Name = req.Name
	t.Description = req.Description
	if err := s.TypeRepo.Update(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrDuplicateType
		}
		return nil, err
	}
	return t, nil
}

func (s *TaxonomyService) DeleteType(ctx context.Context, id string) error {
	if _, err := s.GetType(ctx, id); err != nil {
		return err
	}
	inUse, err := s.ResourceRepo.CountByType(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return util.ErrTypeInUse
	}
	return s.TypeRepo.Delete(ctx, id)
}
