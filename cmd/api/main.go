package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-planner/internal/api"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.String("store_driver", cfg.Store.Driver),
	)

	st, err := store.New(&cfg.Store)
	if err != nil {
		common.LogFatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := api.NewServices(cfg, st)
	services.Start(context.Background())
	router := api.SetupRouter(cfg, services)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			stop()
		}
	}()

	// 啟動時封存已結束的週；封存端點預設為本服務，稍候伺服器就緒
	if cfg.App.RolloverOnStart {
		go func() {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			if _, err := services.Archiver.RunAll(ctx, time.Now()); err != nil {
				common.LogError("Startup rollover failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	if err := services.Close(shutdownCtx); err != nil {
		common.LogWarn("Background jobs did not finish cleanly", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
