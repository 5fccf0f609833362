package api

import (
	"context"
	"net/http"
	"time"

	"recipe-planner/internal/api/handlers"
	archiveHandler "recipe-planner/internal/api/handlers/archive"
	groceryHandler "recipe-planner/internal/api/handlers/grocery"
	"recipe-planner/internal/api/handlers/health"
	"recipe-planner/internal/api/handlers/operations"
	plannerHandler "recipe-planner/internal/api/handlers/planner"
	recipeHandler "recipe-planner/internal/api/handlers/recipe"
	"recipe-planner/internal/api/handlers/respond"
	"recipe-planner/internal/api/middleware"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "X-Generation-Mode"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 請求超時與除錯旗標
	timeout := cfg.Server.WriteTimeout
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Set(respond.DebugKey, cfg.App.Debug)
		c.Next()
	})

	healthH := health.NewHandler(cfg, svc.Store, svc.Queue, svc.Tracker)
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)

	dedup := svc.Dedup.Middleware()
	groceryH := groceryHandler.NewHandler(svc.GroceryJob, svc.Store, svc.Tracker, cfg.Tracker.StaleAfter)
	plannerH := plannerHandler.NewHandler(svc.Planner, svc.Cursor, svc.Archiver)
	recipeH := recipeHandler.NewHandler(svc.Recipes, svc.EnhanceJob)
	opsH := operations.NewHandler(svc.Tracker, cfg.Tracker.StaleAfter)
	archiveH := archiveHandler.NewHandler(svc.Receiver)
	aiH := handlers.NewAIHandler(svc.AI, svc.Enhancer)

	api := router.Group("/api/v1")
	{
		groceryGroup := api.Group("/grocery")
		{
			groceryGroup.POST("/aggregate", groceryH.Aggregate)
			groceryGroup.POST("/generate", dedup, groceryH.Generate)
			groceryGroup.GET("/lists/:user/:week", groceryH.GetList)
		}

		familyGroup := api.Group("/families/:family")
		{
			familyGroup.GET("/plan", plannerH.GetPlan)
			familyGroup.PUT("/recipes/:recipe/plan", plannerH.Assign)
			familyGroup.DELETE("/recipes/:recipe/plan", plannerH.Unassign)
			familyGroup.GET("/recipes/:recipe/planned-dates", plannerH.PlannedDates)
			familyGroup.POST("/rollover", dedup, plannerH.Rollover)
		}

		api.GET("/users/:user/week", plannerH.GetWeek)
		api.PUT("/users/:user/week", plannerH.PutWeek)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("/:id", recipeH.Get)
			recipeGroup.PUT("/:id", recipeH.Put)
			recipeGroup.POST("/:id/enhance", dedup, recipeH.Enhance)
		}

		opsGroup := api.Group("/operations")
		{
			opsGroup.GET("", opsH.List)
			opsGroup.DELETE("/:id", opsH.Remove)
			opsGroup.POST("/cancel", opsH.CancelAll)
		}

		archiveGroup := api.Group("/archive/weeks")
		{
			archiveGroup.POST("", archiveH.Receive)
			archiveGroup.GET("/:family/:week", archiveH.Get)
		}

		aiGroup := api.Group("/ai")
		if cfg.RateLimit.Enabled {
			aiGroup.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
		}
		{
			aiGroup.POST("/grocery-list", aiH.GroceryList)
			aiGroup.POST("/recipes/:id/enhance", aiH.EnhanceRecipe)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Code: common.ErrCodeNotFound, Message: "route not found"})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("ai_enabled", svc.AI.Enabled()),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)
	return router
}
