package controller

import (
	"strings"

	"jsr_backend/internal/config"
	"jsr_backend/internal/model"
	"jsr_backend/internal/service"
	"jsr_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InteractionController struct {
	VoteService        *service.VoteService
	InteractionService *service.InteractionService
	Limits             config.ResourcesConfig
}

func NewInteractionController(voteService *service.VoteService, interactionService *service.InteractionService, limits config.ResourcesConfig) *InteractionController {
	return &InteractionController{
		VoteService:        voteService,
		InteractionService: interactionService,
		Limits:             limits,
	}
}

// VoteRequest value 取 up、down 或 none；voteType 为旧客户端使用的 upvote/downvote
type VoteRequest struct {
	Value    string `json:"value"`
	VoteType string `json:"voteType"`
}

func (r VoteRequest) voteValue() model.VoteValue {
	if r.Value != "" {
		return model.VoteValue(strings.ToLower(strings.TrimSpace(r.Value)))
	}
	switch strings.ToLower(strings.TrimSpace(r.VoteType)) {
	case "upvote":
		return model.VoteUp
	case "downvote":
		return model.VoteDown
	}
	return ""
}

type InteractionsRequest struct {
	ResourceIDs []string `json:"resourceIds"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// @Summary 投票
// @Description 对资源投赞成、反对票，或撤销投票；重复相同的投票不产生变化
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param body body VoteRequest true "投票值"
// @Success 200 {object} util.Response{data=service.VoteResult}
// @Failure 400 {object} util.Response "投票值无效或没有可撤销的投票"
// @Failure 404 {object} util.Response "资源不存在"
// @Failure 409 {object} util.Response "并发投票冲突"
// @Router /api/v1/resources/{id}/vote [post]
func (c *InteractionController) Vote(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	var req VoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrInvalidVoteType)
		return
	}

	result, err := c.VoteService.ApplyVote(ctx.Request.Context(), ctx.Param("id"), user.ID, req.voteValue())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, result, "Vote recorded")
}

// @Summary 当前用户的投票
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Success 200 {object} util.Response{data=service.VoteResult}
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/{id}/vote [get]
func (c *InteractionController) GetUserVote(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	result, err := c.VoteService.GetUserVote(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 批量获取互动状态
// @Description 一次返回多个资源的投票、收藏状态与票数，最多 50 个
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InteractionsRequest true "资源ID列表"
// @Success 200 {object} util.Response{data=map[string]service.ResourceInteraction}
// @Failure 400 {object} util.Response "ID 为空或过多"
// @Router /api/v1/resources/interactions [post]
func (c *InteractionController) BatchInteractions(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	var req InteractionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrMissingIDs)
		return
	}

	result, err := c.InteractionService.BatchInteractions(ctx.Request.Context(), user.ID, req.ResourceIDs)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 票数对账
// @Description 对比资源票数与投票记录，repair=true 时按投票记录修正
// @Tags 资源管理
// @Produce json
// @Security BearerAuth
// @Param repair query bool false "是否修正"
// @Success 200 {object} util.Response{data=object}
// @Router /api/v1/admin/votes/verify [get]
func (c *InteractionController) VerifyTallies(ctx *gin.Context) {
	repair := ctx.Query("repair") == "true"
	drifts, err := c.VoteService.VerifyTallies(ctx.Request.Context(), repair)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if drifts == nil {
		drifts = []service.TallyDrift{}
	}
	util.Success(ctx, gin.H{
		"drifts":   drifts,
		"repaired": repair,
	})
}

// @Summary 收藏资源
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Success 201 {object} util.Response{data=model.Bookmark}
// @Failure 400 {object} util.Response "已收藏"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/{id}/bookmark [post]
func (c *InteractionController) AddBookmark(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	bookmark, err := c.InteractionService.AddBookmark(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, bookmark, "Resource bookmarked")
}

// @Summary 取消收藏
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "收藏不存在"
// @Router /api/v1/resources/{id}/bookmark [delete]
func (c *InteractionController) RemoveBookmark(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	if err := c.InteractionService.RemoveBookmark(ctx.Request.Context(), ctx.Param("id"), user.ID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.SuccessWithMessage(ctx, nil, "Bookmark removed")
}

// @Summary 我的收藏
// @Description 只包含已审核的资源，可按收费类型筛选
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param pricingType query string false "收费类型，可逗号分隔多个"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=[]model.Bookmark}
// @Router /api/v1/bookmarks [get]
func (c *InteractionController) ListBookmarks(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}
	page, limit, err := pageParams(ctx, c.Limits.DefaultLimit, c.Limits.MaxLimit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	bookmarks, pagination, err := c.InteractionService.ListBookmarks(ctx.Request.Context(), user.ID, ctx.Query("pricingType"), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Paginated(ctx, bookmarks, pagination)
}

// @Summary 发表评论
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Param body body CommentRequest true "评论内容"
// @Success 201 {object} util.Response{data=model.Comment}
// @Failure 400 {object} util.Response "内容为空或过长"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/{id}/comments [post]
func (c *InteractionController) AddComment(ctx *gin.Context) {
	user, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrMissingContent)
		return
	}

	comment, err := c.InteractionService.AddComment(ctx.Request.Context(), ctx.Param("id"), user.ID, req.Content)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, comment, "Comment added")
}

// @Summary 资源评论列表
// @Description 按时间倒序
// @Tags 互动
// @Produce json
// @Param id path string true "资源ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=[]model.Comment}
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/v1/resources/{id}/comments [get]
func (c *InteractionController) ListComments(ctx *gin.Context) {
	page, limit, err := pageParams(ctx, c.Limits.DefaultLimit, c.Limits.MaxLimit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	comments, pagination, err := c.InteractionService.ListComments(ctx.Request.Context(), ctx.Param("id"), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Paginated(ctx, comments, pagination)
}
