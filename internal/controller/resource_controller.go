package controller

import (
	"strconv"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/service"
	"jsr_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
	PreviewService  *service.PreviewService
	Limits          config.ResourcesConfig
}

func NewResourceController(resourceService *service.ResourceService, previewService *service.PreviewService, limits config.ResourcesConfig) *ResourceController {
	return &ResourceController{
		ResourceService: resourceService,
		PreviewService:  previewService,
		Limits:          limits,
	}
}

// StatusRequest 审核状态
type StatusRequest struct {
	Status string `json:"status"`
}

func queryParams(ctx *gin.Context) repository.ResourceQueryParams {
	return repository.ResourceQueryParams{
		Category:    ctx.Query("category"),
		Type:        ctx.Query("type"),
		Difficulty:  ctx.Query("difficulty"),
		PricingType: ctx.Query("pricingType"),
		Status:      ctx.Query("status"),
		Search:      ctx.Query("search"),
		Page:        ctx.Query("page"),
		Limit:       ctx.Query("limit"),
	}
}

// pageParams 评论、收藏等简单分页
func pageParams(ctx *gin.Context, defaultLimit, maxLimit int) (int, int, error) {
	page, limit := 1, defaultLimit
	var err error
	if raw := ctx.Query("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			return 0, 0, util.ErrInvalidPagination
		}
	}
	if raw := ctx.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			return 0, 0, util.ErrInvalidPagination
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if err := repository.ValidatePage(page, limit); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func (c *ResourceController) list(ctx *gin.Context, base repository.ResourceFilter, defaultLimit int) {
	resources, pagination, err := c.ResourceService.List(ctx.Request.Context(), base, queryParams(ctx), defaultLimit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Paginated(ctx, resources, pagination)
}

// @Summary 获取资源列表
// @Description 只返回已审核的资源，支持分类、类型、难度、收费类型筛选与关键词搜索
// @Tags 资源
// @Produce json
// @Param category query string false "分类ID"
// @Param type query string false "类型ID"
// @Param difficulty query string false "难度，可逗号分隔多个"
// @Param pricingType query string false "收费类型，可逗号分隔多个"
// @Param search query string false "关键词"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/v1/resources [get]
func (c *ResourceController) GetResources(ctx *gin.Context) {
	c.list(ctx, repository.ResourceFilter{Status: model.StatusApproved}, c.Limits.DefaultLimit)
}

// @Summary 获取免费资源
// @Tags 资源
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Router /api/v1/resources/free [get]
func (c *ResourceController) GetFreeResources(ctx *gin.Context) {
	c.list(ctx, repository.ResourceFilter{Status: model.StatusApproved, PricingType: model.PricingFree}, c.Limits.DefaultLimit)
}

// @Summary 获取付费资源
// @Tags 资源
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Router /api/v1/resources/paid [get]
func (c *ResourceController) GetPaidResources(ctx *gin.Context) {
	c.list(ctx, repository.ResourceFilter{Status: model.StatusApproved, PricingType: model.PricingPaid}, c.Limits.DefaultLimit)
}

// @Summary 我提交的资源
// @Description 包含待审核与已拒绝的资源
// @Tags 资源
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Failure 401 {object} util.Response "未登录"
// @Router /api/v1/resources/user/submitted [get]
func (c *ResourceController) GetUserSubmitted(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}
	c.list(ctx, repository.ResourceFilter{CreatedBy: user.ID}, c.Limits.DefaultLimit)
}

// @Summary 管理员获取全部资源
// @Description 支持按审核状态筛选
// @Tags 资源管理
// @Produce json
// @Security BearerAuth
// @Param status query string false "审核状态" Enums(pending, approved, rejected)
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Failure 403 {object} util.Response "无权限"
// @Router /api/v1/resources/admin/all [get]
func (c *ResourceController) GetAllResources(ctx *gin.Context) {
	c.list(ctx, repository.ResourceFilter{}, c.Limits.AdminDefaultLimit)
}

// @Summary 获取资源详情
// @Description 未审核的资源仅管理员可见
// @Tags 资源
// @Produce json
// @Param id path string true "资源ID"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	resource, err := c.ResourceService.Get(ctx.Request.Context(), ctx.Param("id"), util.GetPrincipal(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resource)
}

// @Summary 提交资源
// @Description 新资源为待审核状态
// @Tags 资源
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ResourceRequest true "资源信息"
// @Success 201 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/v1/resources [post]
func (c *ResourceController) CreateResource(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	var req service.ResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "INVALID_REQUEST", err.Error())
		return
	}

	resource, err := c.ResourceService.Create(ctx.Request.Context(), user.ID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, resource, "Resource submitted and pending review")
}

// @Summary 修改资源
// @Description 只修改描述性字段，不影响票数与审核状态
// @Tags 资源管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param body body service.ResourceUpdateRequest true "修改内容"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/admin/{id} [put]
func (c *ResourceController) UpdateResource(ctx *gin.Context) {
	var req service.ResourceUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "INVALID_REQUEST", err.Error())
		return
	}

	resource, err := c.ResourceService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, resource, "Resource updated")
}

// @Summary 审核资源
// @Tags 资源管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param body body StatusRequest true "审核状态"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "状态无效"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/admin/{id}/status [put]
func (c *ResourceController) UpdateStatus(ctx *gin.Context) {
	var req StatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrInvalidStatus)
		return
	}

	resource, err := c.ResourceService.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, resource, "Resource status updated to "+string(resource.Status))
}

// @Summary 修改收费信息
// @Tags 资源管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param body body service.PricingRequest true "收费信息"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/v1/resources/admin/{id}/pricing [put]
func (c *ResourceController) UpdatePricing(ctx *gin.Context) {
	var req service.PricingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrInvalidPricingType)
		return
	}

	resource, err := c.ResourceService.UpdatePricing(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, resource, "Resource pricing updated")
}

// @Summary 上传资源封面
// @Tags 资源管理
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param image formData file true "图片文件"
// @Success 200 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "图片无效"
// @Router /api/v1/resources/admin/{id}/image [post]
func (c *ResourceController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		util.HandleError(ctx, util.ErrInvalidImage)
		return
	}

	resource, err := c.ResourceService.UploadImage(ctx.Request.Context(), ctx.Param("id"), file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, resource, "Resource image uploaded")
}

// @Summary 删除资源
// @Description 同时删除投票、收藏与评论
// @Tags 资源管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/admin/{id} [delete]
func (c *ResourceController) DeleteResource(ctx *gin.Context) {
	if err := c.ResourceService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, nil, "Resource deleted")
}

// @Summary 链接预览
// @Description 抓取页面标题、描述、图片与图标，用于提交资源时预填
// @Tags 资源
// @Produce json
// @Param url query string true "链接"
// @Success 200 {object} util.Response{data=service.LinkPreview}
// @Failure 400 {object} util.Response "链接无效"
// @Router /api/v1/resources/prefetch [get]
func (c *ResourceController) Prefetch(ctx *gin.Context) {
	preview, err := c.PreviewService.Preview(ctx.Request.Context(), ctx.Query("url"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, preview)
}
