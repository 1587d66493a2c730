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
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcadapter "github.com/simaogato/fundledger-backend/internal/adapter/grpc"
	"github.com/simaogato/fundledger-backend/internal/adapter/metrics"
	"github.com/simaogato/fundledger-backend/internal/app"
	"github.com/simaogato/fundledger-backend/internal/config"
	"github.com/simaogato/fundledger-backend/internal/logger"
	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// 1. Configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 2. Storage, load, processor and operator seed
	recorder := metrics.New()
	fund, err := app.Open(ctx, cfg, log, processor.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := fund.Close(flushCtx); err != nil {
			log.Error("failed to flush fund state", zap.Error(err))
		}
	}()
	if point, ok := fund.LatestNAV(); ok {
		recorder.ObserveNAV(point.NAV)
	}

	// 3. gRPC server with auth; health checks stay public
	healthSrv := health.NewServer()
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log.Named("grpc")),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken, "/grpc.health.v1.Health/Check"),
		),
	)
	grpcadapter.RegisterFundServiceServer(grpcServer, grpcadapter.NewServer(fund, log.Named("grpc")))
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCAddr, err)
	}

	// 4. Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		log.Info("metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 5. Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return metricsServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, grpclib.ErrServerStopped) {
		return nil
	}
	return err
}
