package controller

import (
	"jsr_backend/internal/service"
	"jsr_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// TaxonomyController 分类与资源类型
type TaxonomyController struct {
	TaxonomyService *service.TaxonomyService
}

func NewTaxonomyController(taxonomyService *service.TaxonomyService) *TaxonomyController {
	return &TaxonomyController{TaxonomyService: taxonomyService}
}

func bindTaxonomy(ctx *gin.Context) (service.TaxonomyRequest, bool) {
	var req service.TaxonomyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrMissingFields)
		return req, false
	}
	return req, true
}

// @Summary 分类列表
// @Tags 分类
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /api/v1/categories [get]
func (c *TaxonomyController) ListCategories(ctx *gin.Context) {
	categories, err := c.TaxonomyService.ListCategories(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, categories)
}

// @Summary 分类详情
// @Tags 分类
// @Produce json
// @Param id path string true "分类ID"
// @Success 200 {object} util.Response{data=model.Category}
// @Failure 404 {object} util.Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (c *TaxonomyController) GetCategory(ctx *gin.Context) {
	category, err := c.TaxonomyService.GetCategory(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, category)
}

// @Summary 创建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TaxonomyRequest true "分类信息"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/v1/categories [post]
func (c *TaxonomyController) CreateCategory(ctx *gin.Context) {
	req, ok := bindTaxonomy(ctx)
	if !ok {
		return
	}
	category, err := c.TaxonomyService.CreateCategory(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, category, "Category created")
}

// @Summary 修改分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Param body body service.TaxonomyRequest true "分类信息"
// @Success 200 {object} util.Response{data=model.Category}
// @Failure 404 {object} util.Response "分类不存在"
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/v1/categories/{id} [put]
func (c *TaxonomyController) UpdateCategory(ctx *gin.Context) {
	req, ok := bindTaxonomy(ctx)
	if !ok {
		return
	}
	category, err := c.TaxonomyService.UpdateCategory(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, category, "Category updated")
}

// @Summary 删除分类
// @Description 仍有资源使用该分类时不可删除
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path string true "分类ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "分类不存在"
// @Failure 409 {object} util.Response "分类被引用"
// @Router /api/v1/categories/{id} [delete]
func (c *TaxonomyController) DeleteCategory(ctx *gin.Context) {
	if err := c.TaxonomyService.DeleteCategory(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, nil, "Category deleted")
}

// @Summary 资源类型列表
// @Tags 资源类型
// @Produce json
// @Success 200 {object} util.Response{data=[]model.ResourceType}
// @Router /api/v1/types [get]
func (c *TaxonomyController) ListTypes(ctx *gin.Context) {
	types, err := c.TaxonomyService.ListTypes(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, types)
}

// @Summary 资源类型详情
// @Tags 资源类型
// @Produce json
// @Param id path string true "类型ID"
// @Success 200 {object} util.Response{data=model.ResourceType}
// @Failure 404 {object} util.Response "类型不存在"
// @Router /api/v1/types/{id} [get]
func (c *TaxonomyController) GetType(ctx *gin.Context) {
	t, err := c.TaxonomyService.GetType(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, t)
}

// @Summary 创建资源类型
// @Tags 资源类型
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TaxonomyRequest true "类型信息"
// @Success 201 {object} util.Response{data=model.ResourceType}
// @Failure 409 {object} util.Response "名称重复"
// @Router /api/v1/types [post]
func (c *TaxonomyController) CreateType(ctx *gin.Context) {
	req, ok := bindTaxonomy(ctx)
	if !ok {
		return
	}
	t, err := c.TaxonomyService.CreateType(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, t, "Resource type created")
}

// @Summary 修改资源类型
// @Tags 资源类型
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "类型ID"
// @Param body body service.TaxonomyRequest true "类型信息"
// @Success 200 {object} util.Response{data=model.ResourceType}
// @Router /api/v1/types/{id} [put]
func (c *TaxonomyController) UpdateType(ctx *gin.Context) {
	req, ok := bindTaxonomy(ctx)
	if !ok {
		return
	}
	t, err := c.TaxonomyService.UpdateType(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, t, "Resource type updated")
}

// @Summary 删除资源类型
// @Description 仍有资源使用该类型时不可删除
// @Tags 资源类型
// @Produce json
// @Security BearerAuth
// @Param id path string true "类型ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "类型被引用"
// @Router /api/v1/types/{id} [delete]
func (c *TaxonomyController) DeleteType(ctx *gin.Context) {
	if err := c.TaxonomyService.DeleteType(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, nil, "Resource type deleted")
}
