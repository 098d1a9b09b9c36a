package service

import (
	"context"
	"strings"
	"testing"

	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/testutil"
	"jsr_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTaxonomyService(db *gorm.DB) *TaxonomyService {
	return NewTaxonomyService(
		repository.NewCategoryRepository(db),
		repository.NewResourceTypeRepository(db),
		repository.NewResourceRepository(db),
	)
}

func TestCategoryLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaxonomyService(db)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, TaxonomyRequest{Name: "  Frameworks ", Description: "React, Vue"})
	require.NoError(t, err)
	assert.Equal(t, "Frameworks", category.Name)

	_, err = svc.CreateCategory(ctx, TaxonomyRequest{Name: "frameworks"})
	assert.ErrorIs(t, err, util.ErrDuplicateCategory)

	_, err = svc.CreateCategory(ctx, TaxonomyRequest{Name: "   "})
	assert.ErrorIs(t, err, util.ErrMissingFields)

	_, err = svc.CreateCategory(ctx, TaxonomyRequest{Name: strings.Repeat("x", 51)})
	assert.ErrorIs(t, err, util.ErrFieldTooLong)

	other, err := svc.CreateCategory(ctx, TaxonomyRequest{Name: "Testing"})
	require.NoError(t, err)
	_, err = svc.UpdateCategory(ctx, other.ID, TaxonomyRequest{Name: "Frameworks"})
	assert.ErrorIs(t, err, util.ErrDuplicateCategory)

	// 保持原名更新描述
	updated, err := svc.UpdateCategory(ctx, category.ID, TaxonomyRequest{Name: "Frameworks", Description: "UI libraries"})
	require.NoError(t, err)
	assert.Equal(t, "UI libraries", updated.Description)

	testutil.CreateResource(t, db, func(r *model.Resource) { r.CategoryID = category.ID })
	assert.ErrorIs(t, svc.DeleteCategory(ctx, category.ID), util.ErrCategoryInUse)

	require.NoError(t, svc.DeleteCategory(ctx, other.ID))
	_, err = svc.GetCategory(ctx, other.ID)
	assert.ErrorIs(t, err, util.ErrCategoryNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, other.ID), util.ErrCategoryNotFound)
}

func TestTypeLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newTaxonomyService(db)
	ctx := context.Background()

	video, err := svc.CreateType(ctx, TaxonomyRequest{Name: "Video"})
	require.NoError(t, err)
	_, err = svc.CreateType(ctx, TaxonomyRequest{Name: "VIDEO"})
	assert.ErrorIs(t, err, util.ErrDuplicateType)

	book, err := svc.CreateType(ctx, TaxonomyRequest{Name: "Book"})
	require.NoError(t, err)

	types, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	testutil.CreateResource(t, db, func(r *model.Resource) { r.TypeID = video.ID })
	assert.ErrorIs(t, svc.DeleteType(ctx, video.ID), util.ErrTypeInUse)
	require.NoError(t, svc.DeleteType(ctx, book.ID))

	_, err = svc.UpdateType(ctx, book.ID, TaxonomyRequest{Name: "Ebook"})
	assert.ErrorIs(t, err, util.ErrTypeNotFound)
}
