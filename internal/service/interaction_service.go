package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/tracing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ResourceInteraction 当前用户在单个资源上的互动状态
type ResourceInteraction struct {
	Vote         *model.VoteValue    `json:"vote"`
	IsBookmarked bool                `json:"isBookmarked"`
	VoteCounts   model.VoteAggregate `json:"voteCounts"`
}

type InteractionService struct {
	VoteRepo         *repository.VoteRepository
	BookmarkRepo     *repository.BookmarkRepository
	CommentRepo      *repository.CommentRepository
	ResourceRepo     *repository.ResourceRepository
	MaxBatchIDs      int
	CommentMaxLength int
	policy           *bluemonday.Policy
}

func NewInteractionService(
	voteRepo *repository.VoteRepository,
	bookmarkRepo *repository.BookmarkRepository,
	commentRepo *repository.CommentRepository,
	resourceRepo *repository.ResourceRepository,
	maxBatchIDs, commentMaxLength int,
) *InteractionService {
	return &InteractionService{
		VoteRepo:         voteRepo,
		BookmarkRepo:     bookmarkRepo,
		CommentRepo:      commentRepo,
		ResourceRepo:     resourceRepo,
		MaxBatchIDs:      maxBatchIDs,
		CommentMaxLength: commentMaxLength,
		policy:           bluemonday.StrictPolicy(),
	}
}

// normalizeIDs 去空去重，保持首次出现的顺序
func normalizeIDs(ids []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen.Contains(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out
}

// BatchInteractions 一次性返回多个资源的互动状态
// 投票、收藏、票数各一次查询；超过上限时不访问数据库
func (s *InteractionService) BatchInteractions(ctx context.Context, userID string, resourceIDs []string) (_ map[string]ResourceInteraction, err error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionService.BatchInteractions",
		attribute.Int("resource.count", len(resourceIDs)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if len(resourceIDs) == 0 {
		return nil, util.ErrMissingIDs
	}
	if len(resourceIDs) > s.MaxBatchIDs {
		return nil, util.ErrTooManyIDs
	}
	ids := normalizeIDs(resourceIDs)
	if len(ids) == 0 {
		return nil, util.ErrMissingIDs
	}

	votes, err := s.VoteRepo.FindByUserAndResources(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	bookmarked, err := s.BookmarkRepo.FindResourceIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	aggregates, err := s.ResourceRepo.FindAggregates(ctx, ids)
	if err != nil {
		return nil, err
	}

	voteByResource := make(map[string]model.VoteValue, len(votes))
	for _, v := range votes {
		voteByResource[v.ResourceID] = v.Value
	}
	bookmarkSet := mapset.NewThreadUnsafeSet(bookmarked...)
	aggByResource := make(map[string]model.VoteAggregate, len(aggregates))
	for _, r := range aggregates {
		aggByResource[r.ID] = r.Votes
	}

	// 不存在的 ID 也返回默认值
	result := make(map[string]ResourceInteraction, len(ids))
	for _, id := range ids {
		item := ResourceInteraction{
			IsBookmarked: bookmarkSet.Contains(id),
			VoteCounts:   aggByResource[id],
		}
		if v, ok := voteByResource[id]; ok {
			value := v
			item.Vote = &value
		}
		result[id] = item
	}
	return result, nil
}

func (s *InteractionService) ensureResource(ctx context.Context, resourceID string) error {
	exists, err := s.ResourceRepo.Exists(ctx, resourceID)
	if err != nil {
		return err
	}
	if !exists {
		return util.ErrResourceNotFound
	}
	return nil
}

func (s *InteractionService) AddBookmark(ctx context.Context, resourceID, userID string) (*model.Bookmark, error) {
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}
	exists, err := s.BookmarkRepo.Exists(ctx, resourceID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrAlreadyBookmarked
	}

	bookmark := &model.Bookmark{ResourceID: resourceID, UserID: userID}
	if err := s.BookmarkRepo.Create(ctx, bookmark); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyBookmarked
		}
		return nil, err
	}
	return bookmark, nil
}

func (s *InteractionService) RemoveBookmark(ctx context.Context, resourceID, userID string) error {
	deleted, err := s.BookmarkRepo.Delete(ctx, resourceID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrBookmarkNotFound
	}
	return nil
}

// ListBookmarks pricing 为逗号分隔的收费类型，可为空
func (s *InteractionService) ListBookmarks(ctx context.Context, userID, pricing string, page, limit int) ([]model.Bookmark, *util.Pagination, error) {
	var pricingTypes []model.PricingType
	for _, p := range strings.Split(pricing, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		pt := model.PricingType(p)
		if !pt.Valid() {
			return nil, nil, util.ErrInvalidPricingType
		}
		pricingTypes = append(pricingTypes, pt)
	}

	bookmarks, total, err := s.BookmarkRepo.FindByUser(ctx, userID, pricingTypes, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return bookmarks, util.NewPagination(page, limit, total), nil
}

// sanitize 去除 HTML 标签，保留纯文本
func (s *InteractionService) sanitize(content string) string {
	return plainText(s.policy, content)
}

func (s *InteractionService) AddComment(ctx context.Context, resourceID, userID, content string) (*model.Comment, error) {
	content = s.sanitize(content)
	if content == "" {
		return nil, util.ErrMissingContent
	}
	if utf8.RuneCountInString(content) > s.CommentMaxLength {
		return nil, util.ErrContentTooLong
	}
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	comment := &model.Comment{ResourceID: resourceID, UserID: userID, Content: content}
	if err := s.CommentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *InteractionService) ListComments(ctx context.Context, resourceID string, page, limit int) ([]model.Comment, *util.Pagination, error) {
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, nil, err
	}
	comments, total, err := s.CommentRepo.FindByResource(ctx, resourceID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return comments, util.NewPagination(page, limit, total), nil
}
