package app

import (
	"jsr_backend/docs"
	"jsr_backend/internal/middleware"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, s *Services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	if a.Config.Storage.Type == util.StorageLocal {
		router.Static("/uploads", a.Config.Storage.LocalPath)
	}

	router.NoRoute(util.NotFound)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ActivityMiddleware(repos.user))
	v1.GET("/", c.health.Info)

	required := middleware.AuthMiddleware(s.Gate)
	optional := middleware.TryAuthMiddleware(s.Gate)
	admin := []gin.HandlerFunc{required, middleware.AdminOnly()}

	// 1. 认证
	a.registerAuthRoutes(v1.Group("/auth"), c, required)

	// 2. 资源与互动
	a.registerResourceRoutes(v1.Group("/resources"), c, required, optional, admin)
	v1.GET("/bookmarks", required, c.interaction.ListBookmarks)

	// 3. 分类与资源类型
	a.registerTaxonomyRoutes(v1, c, admin)

	// 4. 管理员维护接口
	adminGroup := v1.Group("/admin", admin...)
	{
		adminGroup.GET("/votes/verify", c.interaction.VerifyTallies)
	}
}

func (a *App) registerAuthRoutes(rg *gin.RouterGroup, c *controllers, required gin.HandlerFunc) {
	rg.POST("/admin/login", c.auth.AdminLogin)
	rg.POST("/sync", c.auth.Sync)
	rg.POST("/verify", c.auth.Verify)
	rg.GET("/me", required, c.auth.Me)
}

func (a *App) registerResourceRoutes(rg *gin.RouterGroup, c *controllers, required, optional gin.HandlerFunc, admin []gin.HandlerFunc) {
	// 公共接口
	rg.GET("", c.resource.GetResources)
	rg.GET("/free", c.resource.GetFreeResources)
	rg.GET("/paid", c.resource.GetPaidResources)
	rg.GET("/prefetch", c.resource.Prefetch)
	rg.GET("/:id", optional, c.resource.GetResource)
	rg.GET("/:id/comments", c.interaction.ListComments)

	// 需要登录
	rg.POST("", required, c.resource.CreateResource)
	rg.GET("/user/submitted", required, c.resource.GetUserSubmitted)
	rg.POST("/interactions", required, c.interaction.BatchInteractions)
	rg.POST("/:id/vote", required, c.interaction.Vote)
	rg.GET("/:id/vote", required, c.interaction.GetUserVote)
	rg.POST("/:id/bookmark", required, c.interaction.AddBookmark)
	rg.DELETE("/:id/bookmark", required, c.interaction.RemoveBookmark)
	rg.POST("/:id/comments", required, c.interaction.AddComment)

	// 管理员
	adminGroup := rg.Group("/admin", admin...)
	{
		adminGroup.GET("/all", c.resource.GetAllResources)
		adminGroup.PUT("/:id", c.resource.UpdateResource)
		adminGroup.PUT("/:id/status", c.resource.UpdateStatus)
		adminGroup.PUT("/:id/pricing", c.resource.UpdatePricing)
		adminGroup.POST("/:id/image", c.resource.UploadImage)
		adminGroup.DELETE("/:id", c.resource.DeleteResource)
	}
}

func (a *App) registerTaxonomyRoutes(rg *gin.RouterGroup, c *controllers, admin []gin.HandlerFunc) {
	categories := rg.Group("/categories")
	{
		categories.GET("", c.taxonomy.ListCategories)
		categories.GET("/:id", c.taxonomy.GetCategory)
		categories.POST("", append(admin, c.taxonomy.CreateCategory)...)
		categories.PUT("/:id", append(admin, c.taxonomy.UpdateCategory)...)
		categories.DELETE("/:id", append(admin, c.taxonomy.DeleteCategory)...)
	}

	types := rg.Group("/types")
	{
		types.GET("", c.taxonomy.ListTypes)
		types.GET("/:id", c.taxonomy.GetType)
		types.POST("", append(admin, c.taxonomy.CreateType)...)
		types.PUT("/:id", append(admin, c.taxonomy.UpdateType)...)
		types.DELETE("/:id", append(admin, c.taxonomy.DeleteType)...)
	}
}
