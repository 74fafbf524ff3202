package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/config"
	"github.com/MdKasif0/FairDesk-v2/internal/ai"
	"github.com/MdKasif0/FairDesk-v2/internal/api/handler"
	"github.com/MdKasif0/FairDesk-v2/internal/api/router"
	"github.com/MdKasif0/FairDesk-v2/internal/repository"
	"github.com/MdKasif0/FairDesk-v2/internal/service"
	"github.com/MdKasif0/FairDesk-v2/pkg/database"
	"github.com/MdKasif0/FairDesk-v2/pkg/jwt"
	applogger "github.com/MdKasif0/FairDesk-v2/pkg/logger"
	"github.com/MdKasif0/FairDesk-v2/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与事件广播将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 验证器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 初始化 AI 客户端（未配置 API Key 时降级关闭）
	var suggester ai.SuggestionClient
	var alerter ai.AlertClient
	if cfg.AI.APIKey != "" {
		gemini, err := ai.NewGeminiClient(context.Background(), &cfg.AI, logger)
		if err != nil {
			logger.Warn("AI 客户端初始化失败，智能排座与提示语功能将不可用", zap.Error(err))
		} else {
			suggester = gemini
			alerter = gemini
			defer gemini.Close()
		}
	} else {
		logger.Info("未配置 AI API Key，智能排座与提示语功能关闭")
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	var events service.EventPublisher
	if rdb != nil {
		events = rdb
	}
	svc := service.NewService(cfg, repo, suggester, alerter, events, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("应用已退出")
}
