package middleware

import (
	"context"
	"time"

	"jsr_backend/internal/service"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator 由 service.AuthGate 实现
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (util.Authenticated, error)
}

func tokenFromRequest(c *gin.Context) string {
	if token := service.ExtractBearer(c.GetHeader("Authorization")); token != "" {
		return token
	}
	return c.Query("token")
}

func abortWith(c *gin.Context, err error) {
	if appErr, ok := util.AsAppError(err); ok && appErr.Status < 500 {
		util.Abort(c, appErr)
		return
	}
	logger.Log.Error("Authentication failed", zap.Error(err))
	util.Abort(c, util.InternalError(err))
}

// AuthMiddleware 必须登录
func AuthMiddleware(gate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := gate.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			abortWith(c, err)
			return
		}
		util.SetPrincipal(c, principal)
		c.Next()
	}
}

// TryAuthMiddleware 可选登录，令牌缺失或无效时按匿名处理
func TryAuthMiddleware(gate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			util.SetPrincipal(c, util.Anonymous{})
			c.Next()
			return
		}
		principal, err := gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Optional authentication ignored", zap.Error(err))
			util.SetPrincipal(c, util.Anonymous{})
			c.Next()
			return
		}
		util.SetPrincipal(c, principal)
		c.Next()
	}
}

// AdminOnly 需放在 AuthMiddleware 之后
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.RestrictToAdmin(util.GetPrincipal(c)); err != nil {
			abortWith(c, err)
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

// ActivityMiddleware 记录普通用户最近活跃时间
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		user, ok := util.CurrentUser(c)
		if !ok || user.IsAdmin() {
			return
		}
		// 异步更新，不阻塞主流程
		go func(id string) {
			if err := repo.TouchLastSeen(context.Background(), id, time.Now()); err != nil {
				logger.Log.Warn("Failed to update last seen", zap.String("userId", id), zap.Error(err))
			}
		}(user.ID)
	}
}
