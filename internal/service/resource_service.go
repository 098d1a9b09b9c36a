package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	maxTags              = 10
)

// ResourceRequest 创建资源的请求体
type ResourceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Category     string   `json:"category"`
	Type         string   `json:"type"`
	Difficulty   string   `json:"difficulty"`
	Tags         []string `json:"tags"`
	PricingType  string   `json:"pricingType"`
	Price        *float64 `json:"price"`
	ImageURL     string   `json:"imageUrl"`
	ProviderIcon string   `json:"providerIcon"`
}

// ResourceUpdateRequest 管理员修改描述性字段，未提供的字段保持不变
type ResourceUpdateRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	URL          *string   `json:"url"`
	Category     *string   `json:"category"`
	Type         *string   `json:"type"`
	Difficulty   *string   `json:"difficulty"`
	Tags         *[]string `json:"tags"`
	ImageURL     *string   `json:"imageUrl"`
	ProviderIcon *string   `json:"providerIcon"`
}

type PricingRequest struct {
	PricingType string   `json:"pricingType"`
	Price       *float64 `json:"price"`
}

type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	CategoryRepo *repository.CategoryRepository
	TypeRepo     *repository.ResourceTypeRepository
	Storage      *StorageService
	Limits       repository.QueryLimits
	policy       *bluemonday.Policy
}

func NewResourceService(
	resourceRepo *repository.ResourceRepository,
	categoryRepo *repository.CategoryRepository,
	typeRepo *repository.ResourceTypeRepository,
	storage *StorageService,
	limits repository.QueryLimits,
) *ResourceService {
	return &ResourceService{
		ResourceRepo: resourceRepo,
		CategoryRepo: categoryRepo,
		TypeRepo:     typeRepo,
		Storage:      storage,
		Limits:       limits,
		policy:       bluemonday.StrictPolicy(),
	}
}

// List 基础条件由调用方确定，defaultLimit 因调用场景而异
func (s *ResourceService) List(ctx context.Context, base repository.ResourceFilter, params repository.ResourceQueryParams, defaultLimit int) ([]model.Resource, *util.Pagination, error) {
	limits := s.Limits
	limits.DefaultLimit = defaultLimit

	q, err := repository.BuildResourceQuery(base, params, limits)
	if err != nil {
		return nil, nil, err
	}
	resources, total, err := s.ResourceRepo.FindWithPagination(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return resources, util.NewPagination(q.Page, q.Limit, total), nil
}

// Get 未审核的资源只对管理员可见
func (s *ResourceService) Get(ctx context.Context, id string, principal util.Principal) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByIDWithRelations(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	if resource.Status == model.StatusApproved {
		return resource, nil
	}
	if p, ok := principal.(util.Authenticated); ok && p.IsAdmin() {
		return resource, nil
	}
	return nil, util.ErrResourceNotFound
}

// plainText 去除 HTML 标签
func (s *ResourceService) plainText(v string) string {
	return plainText(s.policy, v)
}

// normalizeURL 缺少协议时补全 https，只接受 http(s)
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", util.ErrMissingFields
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return "", util.ErrInvalidURL
	}
	return u.String(), nil
}

// normalizeTags 小写、去空、去重，最多 10 个
func normalizeTags(tags []string) ([]string, error) {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set.Add(t)
		}
	}
	if set.Cardinality() > maxTags {
		return nil, util.ErrTooManyTags
	}
	out := set.ToSlice()
	sort.Strings(out)
	return out, nil
}

// validatePricing 收费资源必须有大于 0 的价格，免费资源不保留价格
func validatePricing(pricingType string, price *float64) (model.PricingType, *float64, error) {
	pt := model.PricingType(strings.ToLower(strings.TrimSpace(pricingType)))
	if pt == "" {
		pt = model.PricingFree
	}
	if !pt.Valid() {
		return "", nil, util.ErrInvalidPricingType
	}
	if pt == model.PricingFree {
		return pt, nil, nil
	}
	if price == nil || *price <= 0 {
		return "", nil, util.ErrInvalidPrice
	}
	p := *price
	return pt, &p, nil
}

func (s *ResourceService) checkTaxonomy(ctx context.Context, categoryID, typeID string) error {
	if categoryID != "" {
		if !model.IsUUID(categoryID) {
			return util.ErrInvalidCategory
		}
		if _, err := s.CategoryRepo.FindByID(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrInvalidCategory
			}
			return err
		}
	}
	if typeID != "" {
		if !model.IsUUID(typeID) {
			return util.ErrInvalidType
		}
		if _, err := s.TypeRepo.FindByID(ctx, typeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrInvalidType
			}
			return err
		}
	}
	return nil
}

func checkLengths(name, description string) error {
	if utf8.RuneCountInString(name) > maxNameLength || utf8.RuneCountInString(description) > maxDescriptionLength {
		return util.ErrFieldTooLong
	}
	return nil
}

// Create 新提交的资源一律为待审核，票数为 0
func (s *ResourceService) Create(ctx context.Context, userID string, req ResourceRequest) (*model.Resource, error) {
	name := s.plainText(req.Name)
	description := s.plainText(req.Description)
	categoryID := strings.TrimSpace(req.Category)
	typeID := strings.TrimSpace(req.Type)
	if name == "" || description == "" || categoryID == "" || typeID == "" || req.Difficulty == "" || strings.TrimSpace(req.URL) == "" {
		return nil, util.ErrMissingFields
	}
	if err := checkLengths(name, description); err != nil {
		return nil, err
	}

	link, err := normalizeURL(req.URL)
	if err != nil {
		return nil, err
	}
	difficulty := model.Difficulty(strings.ToLower(strings.TrimSpace(req.Difficulty)))
	if !difficulty.Valid() {
		return nil, util.ErrInvalidDifficulty
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	pricingType, price, err := validatePricing(req.PricingType, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.checkTaxonomy(ctx, categoryID, typeID); err != nil {
		return nil, err
	}

	resource := &model.Resource{
		Name:         name,
		Description:  description,
		URL:          link,
		CategoryID:   categoryID,
		TypeID:       typeID,
		Difficulty:   difficulty,
		Tags:         tags,
		Status:       model.StatusPending,
		CreatedBy:    userID,
		PricingType:  pricingType,
		Price:        price,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		ProviderIcon: strings.TrimSpace(req.ProviderIcon),
	}
	if err := s.ResourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}

	logger.Log.Info("Resource submitted", zap.String("resourceId", resource.ID), zap.String("userId", userID))
	return s.ResourceRepo.FindByIDWithRelations(ctx, resource.ID)
}

func (s *ResourceService) update(ctx context.Context, id string, fields map[string]interface{}) (*model.Resource, error) {
	resource, err := s.ResourceRepo.UpdateFields(ctx, id, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResourceNotFound
	}
	return resource, err
}

// Update 不会修改票数与审核状态
func (s *ResourceService) Update(ctx context.Context, id string, req ResourceUpdateRequest) (*model.Resource, error) {
	fields := map[string]interface{}{}

	if req.Name != nil {
		name := s.plainText(*req.Name)
		if name == "" {
			return nil, util.ErrMissingFields
		}
		fields["name"] = name
	}
	if req.Description != nil {
		description := s.plainText(*req.Description)
		if description == "" {
			return nil, util.ErrMissingFields
		}
		fields["description"] = description
	}
	name, _ := fields["name"].(string)
	description, _ := fields["description"].(string)
	if err := checkLengths(name, description); err != nil {
		return nil, err
	}
	if req.URL != nil {
		link, err := normalizeURL(*req.URL)
		if err != nil {
			return nil, err
		}
		fields["url"] = link
	}
	if req.Difficulty != nil {
		difficulty := model.Difficulty(strings.ToLower(strings.TrimSpace(*req.Difficulty)))
		if !difficulty.Valid() {
			return nil, util.ErrInvalidDifficulty
		}
		fields["difficulty"] = difficulty
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		// map 更新不经过序列化器，手动编码
		encoded, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = string(encoded)
		fields["tag_text"] = model.JoinTagText(tags)
	}
	var categoryID, typeID string
	if req.Category != nil {
		categoryID = strings.TrimSpace(*req.Category)
		fields["category_id"] = categoryID
	}
	if req.Type != nil {
		typeID = strings.TrimSpace(*req.Type)
		fields["type_id"] = typeID
	}
	if (req.Category != nil && categoryID == "") || (req.Type != nil && typeID == "") {
		return nil, util.ErrMissingFields
	}
	if err := s.checkTaxonomy(ctx, categoryID, typeID); err != nil {
		return nil, err
	}
	if req.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*req.ImageURL)
	}
	if req.ProviderIcon != nil {
		fields["provider_icon"] = strings.TrimSpace(*req.ProviderIcon)
	}

	if len(fields) == 0 {
		return nil, util.ErrMissingFields
	}
	return s.update(ctx, id, fields)
}

func (s *ResourceService) UpdateStatus(ctx context.Context, id, status string) (*model.Resource, error) {
	st := model.ResourceStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, util.ErrInvalidStatus
	}
	resource, err := s.update(ctx, id, map[string]interface{}{"status": st})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Resource status updated", zap.String("resourceId", id), zap.String("status", string(st)))
	return resource, nil
}

func (s *ResourceService) UpdatePricing(ctx context.Context, id string, req PricingRequest) (*model.Resource, error) {
	if strings.TrimSpace(req.PricingType) == "" {
		return nil, util.ErrInvalidPricingType
	}
	pt, price, err := validatePricing(req.PricingType, req.Price)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]interface{}{"pricing_type": pt, "price": price})
}

// Delete 连同投票、收藏、评论一起删除
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	err := s.ResourceRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrResourceNotFound
	}
	if err == nil {
		logger.Log.Info("Resource deleted", zap.String("resourceId", id))
	}
	return err
}

// UploadImage 校验图片类型后写入对象存储并更新资源封面
func (s *ResourceService) UploadImage(ctx context.Context, id string, file *multipart.FileHeader) (*model.Resource, error) {
	if _, err := s.ResourceRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}
	if file == nil || file.Size == 0 || file.Size > s.Storage.MaxImageBytes {
		return nil, util.ErrInvalidImage
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, util.AllowedImageTypes)
	if err != nil {
		return nil, util.ErrInvalidImage
	}
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	filename := fmt.Sprintf("resources/%s/%d%s", id, time.Now().UnixNano(), util.ImageExtension(mimeType, file.Filename))
	link, err := s.Storage.Upload(ctx, filename, src, file.Size, mimeType)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]interface{}{"image_url": link})
}
