package service

import (
	"context"
	"errors"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"

	"go.uber.org/zap"
)

// SeedService 开发环境示例数据
type SeedService struct {
	Categories   *repository.CategoryRepository
	Types        *repository.ResourceTypeRepository
	Users        *repository.UserRepository
	Resources    *repository.ResourceRepository
	Interactions *InteractionService
	Votes        *VoteService
	Auth         *AuthService
}

// SeedAdmin 初始管理员账号
type SeedAdmin struct {
	Name     string
	Email    string
	Password string
}

var seedCategories = []model.Category{
	{Name: "Fundamentals", Description: "Core JavaScript language concepts"},
	{Name: "Frameworks", Description: "React, Vue, Angular, Svelte and friends"},
	{Name: "Node.js", Description: "Server-side JavaScript"},
	{Name: "Testing", Description: "Unit, integration and end-to-end testing"},
	{Name: "Tooling", Description: "Bundlers, linters and build tools"},
}

var seedTypes = []model.ResourceType{
	{Name: "Article", Description: "Blog posts and written tutorials"},
	{Name: "Video", Description: "Screencasts and conference talks"},
	{Name: "Course", Description: "Structured multi-lesson courses"},
	{Name: "Documentation", Description: "Official reference documentation"},
	{Name: "Book", Description: "Books and e-books"},
}

var seedUsers = []model.User{
	{Name: "Ada Lovelace", Email: "ada@example.com", Provider: model.ProviderEmail, Role: model.RoleUser},
	{Name: "Linus Dev", Email: "linus@example.com", Provider: model.ProviderGithub, Role: model.RoleUser},
}

// Seed 已有分类时视为已初始化，直接返回
func (s *SeedService) Seed(ctx context.Context, admin SeedAdmin) error {
	count, err := s.Categories.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Log.Info("Database already seeded, skipping")
		return nil
	}

	categories := make([]model.Category, len(seedCategories))
	for i, c := range seedCategories {
		categories[i] = c
		if err := s.Categories.Create(ctx, &categories[i]); err != nil {
			return err
		}
	}
	types := make([]model.ResourceType, len(seedTypes))
	for i, t := range seedTypes {
		types[i] = t
		if err := s.Types.Create(ctx, &types[i]); err != nil {
			return err
		}
	}
	users := make([]model.User, len(seedUsers))
	for i, u := range seedUsers {
		users[i] = u
		if err := s.Users.Create(ctx, &users[i]); err != nil {
			return err
		}
	}

	if admin.Email != "" {
		if _, err := s.Auth.CreateAdmin(ctx, admin.Name, admin.Email, admin.Password); err != nil && !errors.Is(err, util.ErrEmailRegistered) {
			return err
		}
	}

	price := 19.99
	resources := []model.Resource{
		{
			Name: "MDN JavaScript Guide", Description: "The JavaScript guide from MDN covering the language from the ground up.",
			URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Guide", CategoryID: categories[0].ID, TypeID: types[3].ID,
			Difficulty: model.DifficultyBeginner, Tags: []string{"javascript", "mdn", "reference"}, Status: model.StatusApproved,
			CreatedBy: users[0].ID, PricingType: model.PricingFree,
		},
		{
			Name: "You Don't Know JS Yet", Description: "A book series diving deep into the core mechanisms of JavaScript.",
			URL: "https://github.com/getify/You-Dont-Know-JS", CategoryID: categories[0].ID, TypeID: types[4].ID,
			Difficulty: model.DifficultyIntermediate, Tags: []string{"closures", "scope", "javascript"}, Status: model.StatusApproved,
			CreatedBy: users[1].ID, PricingType: model.PricingFree,
		},
		{
			Name: "Testing JavaScript", Description: "A course on testing JavaScript applications with confidence.",
			URL: "https://testingjavascript.com", CategoryID: categories[3].ID, TypeID: types[2].ID,
			Difficulty: model.DifficultyIntermediate, Tags: []string{"jest", "testing"}, Status: model.StatusApproved,
			CreatedBy: users[0].ID, PricingType: model.PricingPaid, Price: &price,
		},
		{
			Name: "Node.js Streams Deep Dive", Description: "Understanding readable, writable and transform streams in Node.js.",
			URL: "https://nodejs.org/api/stream.html", CategoryID: categories[2].ID, TypeID: types[0].ID,
			Difficulty: model.DifficultyAdvanced, Tags: []string{"node", "streams"}, Status: model.StatusPending,
			CreatedBy: users[1].ID, PricingType: model.PricingFree,
		},
	}
	for i := range resources {
		if err := s.Resources.Create(ctx, &resources[i]); err != nil {
			return err
		}
	}

	// 互动数据走正常流程，保证票数与投票记录一致
	if _, err := s.Votes.ApplyVote(ctx, resources[0].ID, users[1].ID, model.VoteUp); err != nil {
		return err
	}
	if _, err := s.Votes.ApplyVote(ctx, resources[1].ID, users[0].ID, model.VoteUp); err != nil {
		return err
	}
	if _, err := s.Interactions.AddBookmark(ctx, resources[1].ID, users[0].ID); err != nil {
		return err
	}
	if _, err := s.Interactions.AddComment(ctx, resources[0].ID, users[1].ID, "The best place to start."); err != nil {
		return err
	}

	logger.Log.Info("Database seeded",
		zap.Int("categories", len(categories)),
		zap.Int("types", len(types)),
		zap.Int("resources", len(resources)),
	)
	return nil
}
