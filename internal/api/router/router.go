package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/api/handler"
	"github.com/MdKasif0/FairDesk-v2/internal/api/middleware"
	"github.com/MdKasif0/FairDesk-v2/pkg/jwt"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证，Token 由外部账号系统签发）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 小组模块
		groups := v1.Group("/groups")
		{
			groups.GET("", h.Group.List)
			groups.GET("/:id", h.Group.GetDetail)
			groups.PUT("/:id/roster", h.Group.UpdateRoster)
			groups.POST("/:id/schedules/apply", h.Schedule.Apply)
		}

		// 排座模块
		assignments := v1.Group("/assignments")
		{
			assignments.GET("", h.Assignment.GetDay)
			assignments.GET("/range", h.Assignment.GetRange)
			assignments.GET("/my", h.Assignment.GetMyAssignments)
			assignments.GET("/history", h.Assignment.GetHistory)
			assignments.PUT("/:id/lock", h.Assignment.ToggleLock)
			assignments.POST("/randomize", h.Assignment.Randomize)
		}

		// 换座申请模块
		changeRequests := v1.Group("/change-requests")
		{
			changeRequests.POST("", h.ChangeRequest.Submit)
			changeRequests.GET("/pending", h.ChangeRequest.ListPending)
			changeRequests.GET("/history", h.ChangeRequest.GetHistory)
			changeRequests.GET("/:id", h.ChangeRequest.GetByID)
			changeRequests.POST("/:id/votes", h.ChangeRequest.Vote)
		}

		// 智能排座模块（生成接口限流保护）
		schedules := v1.Group("/schedules")
		{
			schedules.POST("/suggest", middleware.RateLimit(rdb, 10, time.Minute), h.Schedule.Suggest)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/month", h.Export.ExportMonth)
			export.GET("/calendar", h.Export.ExportMyCalendar)
		}
	}

	return r
}
