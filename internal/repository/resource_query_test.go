package repository

import (
	"context"
	"math"
	"testing"

	"jsr_backend/internal/model"
	"jsr_backend/internal/testutil"
	"jsr_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResourceQuery(t *testing.T) {
	limits := QueryLimits{DefaultLimit: 10, MaxLimit: 100, MinTextSearchLen: 3}
	approved := ResourceFilter{Status: model.StatusApproved}

	tests := []struct {
		name   string
		base   ResourceFilter
		params ResourceQueryParams
		err    error
		check  func(t *testing.T, q *ResourceQuery)
	}{
		{
			name: "defaults",
			base: approved,
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Equal(t, 1, q.Page)
				assert.Equal(t, 10, q.Limit)
				assert.Equal(t, SearchNone, q.SearchMode)
			},
		},
		{
			name:   "limit capped",
			base:   approved,
			params: ResourceQueryParams{Page: "3", Limit: "500"},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Equal(t, 100, q.Limit)
				assert.Equal(t, 200, q.Offset())
			},
		},
		{name: "zero page", params: ResourceQueryParams{Page: "0"}, err: util.ErrInvalidPagination},
		{name: "negative limit", params: ResourceQueryParams{Limit: "-5"}, err: util.ErrInvalidPagination},
		{name: "non numeric page", params: ResourceQueryParams{Page: "two"}, err: util.ErrInvalidPagination},
		{name: "page overflows offset", params: ResourceQueryParams{Page: "9223372036854775807", Limit: "100"}, err: util.ErrInvalidPagination},
		{name: "bad difficulty", params: ResourceQueryParams{Difficulty: "beginner,expert"}, err: util.ErrInvalidDifficulty},
		{name: "bad pricing", params: ResourceQueryParams{PricingType: "cheap"}, err: util.ErrInvalidPricingType},
		{name: "bad status", params: ResourceQueryParams{Status: "archived"}, err: util.ErrInvalidStatus},
		{name: "bad category", params: ResourceQueryParams{Category: "frameworks"}, err: util.ErrInvalidID},
		{
			name:   "multi values",
			base:   approved,
			params: ResourceQueryParams{Difficulty: "Beginner, advanced,beginner", PricingType: "free,paid"},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Equal(t, []model.Difficulty{model.DifficultyBeginner, model.DifficultyAdvanced}, q.Difficulties)
				assert.Equal(t, []model.PricingType{model.PricingFree, model.PricingPaid}, q.PricingTypes)
			},
		},
		{
			name:   "base status wins",
			base:   approved,
			params: ResourceQueryParams{Status: "pending"},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Empty(t, q.Status)
				assert.Equal(t, model.StatusApproved, q.Base.Status)
			},
		},
		{
			name:   "base pricing wins",
			base:   ResourceFilter{Status: model.StatusApproved, PricingType: model.PricingFree},
			params: ResourceQueryParams{PricingType: "nonsense"},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Empty(t, q.PricingTypes)
			},
		},
		{
			name:   "short search",
			params: ResourceQueryParams{Search: " ab "},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Equal(t, SearchSubstring, q.SearchMode)
				assert.Equal(t, "ab", q.Search)
			},
		},
		{
			name:   "long search",
			params: ResourceQueryParams{Search: "abc"},
			check: func(t *testing.T, q *ResourceQuery) {
				assert.Equal(t, SearchText, q.SearchMode)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildResourceQuery(tt.base, tt.params, limits)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			tt.check(t, q)
		})
	}
}

func TestValidatePage(t *testing.T) {
	assert.NoError(t, ValidatePage(1, 10))
	assert.NoError(t, ValidatePage(MaxOffset/100+1, 100))
	assert.ErrorIs(t, ValidatePage(MaxOffset/100+2, 100), util.ErrInvalidPagination)
	assert.ErrorIs(t, ValidatePage(math.MaxInt64, 1), util.ErrInvalidPagination)
	assert.ErrorIs(t, ValidatePage(0, 10), util.ErrInvalidPagination)
	assert.ErrorIs(t, ValidatePage(1, 0), util.ErrInvalidPagination)
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"react", "hooks"}, searchTerms(`React +hooks* "react"`))
	assert.Empty(t, searchTerms("+-*"))
}

func ids(resources []model.Resource) []string {
	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = r.ID
	}
	return out
}

func TestFindWithPagination_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewResourceRepository(db)
	ctx := context.Background()
	price := 20.0

	free := testutil.CreateResource(t, db)
	paid := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.PricingType = model.PricingPaid
		r.Price = &price
		r.Difficulty = model.DifficultyAdvanced
	})
	pending := testutil.CreateResource(t, db, func(r *model.Resource) { r.Status = model.StatusPending })

	q, err := BuildResourceQuery(ResourceFilter{Status: model.StatusApproved}, ResourceQueryParams{PricingType: "free,paid", Status: "pending"}, DefaultQueryLimits)
	require.NoError(t, err)
	got, total, err := repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{free.ID, paid.ID}, ids(got))
	assert.NotContains(t, ids(got), pending.ID)
	require.NotNil(t, got[0].Category)
	require.NotNil(t, got[0].Type)

	q, err = BuildResourceQuery(ResourceFilter{Status: model.StatusApproved}, ResourceQueryParams{Difficulty: "advanced"}, DefaultQueryLimits)
	require.NoError(t, err)
	got, _, err = repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{paid.ID}, ids(got))

	q, err = BuildResourceQuery(ResourceFilter{Status: model.StatusApproved}, ResourceQueryParams{Category: paid.CategoryID}, DefaultQueryLimits)
	require.NoError(t, err)
	got, _, err = repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{paid.ID}, ids(got))

	// 无基础状态时可按状态过滤
	q, err = BuildResourceQuery(ResourceFilter{}, ResourceQueryParams{Status: "pending"}, DefaultQueryLimits)
	require.NoError(t, err)
	got, _, err = repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{pending.ID}, ids(got))

	q, err = BuildResourceQuery(ResourceFilter{}, ResourceQueryParams{Page: "2", Limit: "2"}, DefaultQueryLimits)
	require.NoError(t, err)
	got, total, err = repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, got, 1)
}

func TestFindWithPagination_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewResourceRepository(db)
	ctx := context.Background()
	approved := ResourceFilter{Status: model.StatusApproved}

	tagged := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.Name = "Closures explained"
		r.Tags = []string{"abcxyz"}
	})
	inside := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.Name = "Crabcake patterns"
	})
	named := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.Name = "Abc of promises"
	})

	search := func(term string) []string {
		q, err := BuildResourceQuery(approved, ResourceQueryParams{Search: term}, DefaultQueryLimits)
		require.NoError(t, err)
		got, _, err := repo.FindWithPagination(ctx, q)
		require.NoError(t, err)
		return ids(got)
	}

	// 短关键词匹配任意位置
	assert.ElementsMatch(t, []string{tagged.ID, inside.ID, named.ID}, search("ab"))

	// 长关键词按词首匹配，名称命中排在标签命中之前
	assert.Equal(t, []string{named.ID, tagged.ID}, search("abc"))

	assert.Empty(t, search("zzz"))
}

func TestFindWithPagination_TagSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewResourceRepository(db)
	ctx := context.Background()
	approved := ResourceFilter{Status: model.StatusApproved}

	runtime := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.Name = "Runtime notes"
		r.Tags = []string{"es6", "node"}
	})
	markup := testutil.CreateResource(t, db, func(r *model.Resource) {
		r.Name = "Markup basics"
		r.Tags = []string{"<html>"}
	})

	search := func(term string) []string {
		q, err := BuildResourceQuery(approved, ResourceQueryParams{Search: term}, DefaultQueryLimits)
		require.NoError(t, err)
		got, _, err := repo.FindWithPagination(ctx, q)
		require.NoError(t, err)
		return ids(got)
	}

	// 标签按元素匹配，存储格式中的标点不参与
	assert.Empty(t, search(`",`))
	assert.Empty(t, search(`["`))
	assert.Equal(t, []string{markup.ID}, search("<h"))
	assert.Equal(t, []string{runtime.ID}, search("es6"))
	assert.Equal(t, []string{runtime.ID}, search("node"))
}

func TestUpdateFields_TagText(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewResourceRepository(db)
	ctx := context.Background()

	r := testutil.CreateResource(t, db, func(r *model.Resource) { r.Tags = []string{"react"} })
	assert.Equal(t, "\nreact\n", r.TagText)

	_, err := repo.UpdateFields(ctx, r.ID, map[string]interface{}{
		"tags":     `["vue"]`,
		"tag_text": model.JoinTagText([]string{"vue"}),
	})
	require.NoError(t, err)

	q, err := BuildResourceQuery(ResourceFilter{}, ResourceQueryParams{Search: "vu"}, DefaultQueryLimits)
	require.NoError(t, err)
	got, _, err := repo.FindWithPagination(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, ids(got))
}
