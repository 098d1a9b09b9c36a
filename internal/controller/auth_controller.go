package controller

import (
	"jsr_backend/internal/service"
	"jsr_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// AdminLoginRequest 管理员登录请求
// swagger:model AdminLoginRequest
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyTokenRequest 外部令牌校验请求
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// AdminLogin godoc
// @Summary 管理员登录
// @Description 使用邮箱和密码登录，返回本服务签发的令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body AdminLoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.AdminLoginResult} "登录成功"
// @Failure 400 {object} util.Response "缺少字段"
// @Failure 401 {object} util.Response "邮箱或密码错误"
// @Router /api/v1/auth/admin/login [post]
func (c *AuthController) AdminLogin(ctx *gin.Context) {
	var req AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.ErrMissingFields)
		return
	}

	result, err := c.AuthService.AdminLogin(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Sync godoc
// @Summary 同步第三方登录用户
// @Description 使用 Supabase 访问令牌创建或关联本地用户，返回本地令牌
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.SyncRequest false "可选的用户资料"
// @Success 200 {object} util.Response{data=service.SyncResult} "同步成功"
// @Failure 401 {object} util.Response "令牌无效"
// @Router /api/v1/auth/sync [post]
func (c *AuthController) Sync(ctx *gin.Context) {
	var req service.SyncRequest
	// 请求体可选
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, "INVALID_REQUEST", err.Error())
			return
		}
	}

	token := service.ExtractBearer(ctx.GetHeader("Authorization"))
	result, err := c.AuthService.SyncSupabaseUser(ctx.Request.Context(), token, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Verify godoc
// @Summary 校验第三方令牌
// @Description 返回令牌关联的本地用户
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body VerifyTokenRequest true "令牌"
// @Success 200 {object} util.Response{data=model.User} "已关联用户"
// @Failure 401 {object} util.Response "令牌无效"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/v1/auth/verify [post]
func (c *AuthController) Verify(ctx *gin.Context) {
	var req VerifyTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Token == "" {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	user, err := c.AuthService.VerifySupabaseToken(ctx.Request.Context(), req.Token)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// Me godoc
// @Summary 当前用户
// @Description 返回当前登录主体的资料
// @Tags 认证
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response "成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /api/v1/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	principal, ok := util.CurrentUser(ctx)
	if !ok {
		util.HandleError(ctx, util.ErrNotAuthenticated)
		return
	}

	profile, err := c.AuthService.Me(ctx.Request.Context(), principal)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"principal": gin.H{
			"id":    principal.ID,
			"email": principal.Email,
			"role":  principal.Role,
		},
		"profile": profile,
	})
}
