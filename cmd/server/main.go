package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/marketplace/internal/adapter/event"
	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/config"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/logging"
	"github.com/rl1809/marketplace/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error("failed to open mysql", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQLConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping mysql", "err", err)
		os.Exit(1)
	}
	log.Info("connected to mysql")

	if cfg.Migrate {
		if err := storage.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		log.Info("schema up to date")
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	// Events
	var publisher port.EventPublisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		writer := event.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()
		publisher = event.NewKafkaPublisher(log, writer, cfg.EventsTopic)
		log.Info("publishing events", "brokers", cfg.KafkaBrokers, "topic", cfg.EventsTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set, events are dropped")
	}

	// Initialize adapters and services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)

	cartService := service.NewCartService(log, redisAdapter, mysqlAdapter, cfg.CartMaxItems)
	orderService := service.NewOrderService(log, service.Dependencies{
		Catalog: mysqlAdapter,
		Orders:  mysqlAdapter,
		Users:   mysqlAdapter,
		Cache:   redisAdapter,
		Events:  publisher,
	}, cartService, service.NewOTPService(mysqlAdapter, nil))
	projector := service.NewOrderProjector(mysqlAdapter, mysqlAdapter, mysqlAdapter)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps := handler.Dependencies{
		Orders:  orderService,
		Views:   projector,
		Cart:    cartService,
		Metrics: handler.NewMetrics(registry),
	}

	// Start gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(deps.Metrics.UnaryServerInterceptor()))
	handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(log, deps))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "err", err)
			stop()
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(log, deps, registry, cfg.RequestTimeout).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}
	log.Info("HTTP server stopped")

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	log.Info("gRPC server stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
