package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"PPHub/global/config"
	"PPHub/logger"
	mid "PPHub/middleware"
	"PPHub/service/chat"
	"PPHub/service/rtc"
	"PPHub/tools/ids"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	path := flag.String("config", os.Getenv("PPHUB_CONFIG"), "config file (yaml)")
	flag.Parse()

	if err := run(*path); err != nil {
		logger.Error("pphub exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := logger.Setup(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) 依赖
	gen := ids.NewGenerator(cfg.Server.SnowflakeNode)
	st, closeStore, err := openStore(ctx, cfg, gen)
	if err != nil {
		return err
	}
	defer closeStore()

	mirror, closeRedis, err := openPresence(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	pub, closePub, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePub()

	hub := chat.NewHub(chat.Options{
		Store:       st,
		Presence:    mirror,
		Publisher:   pub,
		Minter:      rtc.NewJWTMinter(cfg.RTC.AppID, cfg.RTC.AppCertificate),
		NodeID:      cfg.Server.NodeID,
		EventPrefix: cfg.Events.Prefix,
		OpTimeout:   cfg.Store.OpTimeout,
		TokenTTL:    cfg.RTC.TokenTTL,
	})

	// 2) gRPC 健康检查
	var gs *grpc.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("gRPC listen: %w", err)
		}
		gs = grpc.NewServer()
		healthServer := health.NewServer()
		healthpb.RegisterHealthServer(gs, healthServer)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus("pphub.Hub", healthpb.HealthCheckResponse_SERVING)
		go func() {
			logger.Info("[gRPC] listening", zap.String("addr", cfg.Server.GRPCAddr))
			if err := gs.Serve(lis); err != nil {
				logger.Error("[gRPC] serve", zap.Error(err))
			}
		}()
	}

	// 3) HTTP + WebSocket
	gin.SetMode(gin.ReleaseMode)
	mids := mid.NewManager()
	mids.Add(mid.RequestID())
	r := gin.New()
	r.Use(mid.Recovery(), mid.AccessLog(), mids.Use())
	chat.NewServer(hub, cfg.WS, cfg.Auth).Routes(r)

	srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[HTTP] Listening on %s node=%s", cfg.Server.HTTPAddr, cfg.Server.NodeID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 4) 优雅退出：停止接入 -> 关闭连接 -> 关闭依赖（defer）
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	if err := hub.Shutdown(sctx); err != nil {
		logger.Warn("hub shutdown: pending writes abandoned", zap.Error(err))
	}
	if gs != nil {
		gs.GracefulStop()
	}
	return nil
}
