package api

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/croak-backend/config"
	_ "github.com/d60-Lab/croak-backend/docs"
	"github.com/d60-Lab/croak-backend/internal/api/handler"
	"github.com/d60-Lab/croak-backend/internal/api/middleware"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// digest_time 必须是 "HH:MM"
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("15:04", fl.Field().String())
			return err == nil
		})
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("croak-backend"))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Login)

		// 定时任务端点自带密钥校验
		cron := v1.Group("/cron")
		{
			cron.POST("/process-emails", h.ProcessEmails)
			cron.GET("/process-emails", h.ProcessEmails)
			cron.POST("/daily-digest", h.DailyDigest)
			cron.GET("/daily-digest", h.DailyDigest)
			cron.GET("/stats", h.QueueStats)
			cron.POST("/cleanup", h.Cleanup)
		}

		auth := v1.Group("", middleware.JWTAuth(cfg.JWT.Secret))
		{
			auth.GET("/preferences", h.GetPreferences)
			auth.PUT("/preferences", h.UpdatePreferences)

			auth.POST("/posts", h.CreatePost)
			auth.POST("/posts/:id/like", h.LikePost)
			auth.POST("/posts/:id/comments", h.AddComment)

			auth.POST("/relations/follow", h.Follow)
			auth.POST("/relations/unfollow", h.Unfollow)
		}

		v1.GET("/relations/:user_id/following", h.ListFollowing)
		v1.GET("/relations/:user_id/followers", h.ListFollowers)
	}

	return r
}
