package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_v1_202610/internal/app"
	"storefront_v1_202610/internal/config"
	"storefront_v1_202610/internal/router"
	"storefront_v1_202610/pkg/logger"
)

func main() {
	// 1. 配置与日志
	cfg := config.Load()
	log := logger.New(&logger.Config{
		Development: cfg.IsDevelopment(),
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
	})
	defer func() { _ = log.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 初始化依赖
	ctx := context.Background()
	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("初始化依赖失败", zap.Error(err))
	}
	defer deps.Close()

	// 3. 启动定时任务
	tasks := deps.TaskManager()
	if err := tasks.Start(); err != nil {
		log.Fatal("启动定时任务失败", zap.Error(err))
	}
	defer tasks.Stop()

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers(), router.Options{
		Logger:   log.Named("http"),
		Cooldown: cfg.Catalog.ManualCooldown,
	})

	// 5. 启动服务
	startServer(r, cfg.Server.Port, log)
}

// ==================== 服务启动 ====================

func startServer(r *gin.Engine, port string, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务强制关闭", zap.Error(err))
		return
	}

	log.Info("服务已退出")
}
