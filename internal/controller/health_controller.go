package controller

import (
	"net/http"

	"jsr_backend/internal/util"
	"jsr_backend/pkg/database"
	"jsr_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "数据库不可用"
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	if err := database.Ping(c.DB); err != nil {
		logger.Log.Error("Health check: database unavailable", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}
	// Redis 只用于缓存，不可用时服务仍可工作
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}

// @Summary API 信息
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/v1/ [get]
func (c *HealthController) Info(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"name":        "JSR API",
		"version":     "1.0.0",
		"description": "API for JavaScript Resources",
	})
}
