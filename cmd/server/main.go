package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/config"
	"inventory-service/internal/api"
	"inventory-service/internal/broker"
	"inventory-service/internal/cache"
	"inventory-service/internal/service"
	"inventory-service/internal/store"
	"inventory-service/internal/util"
	"inventory-service/internal/worker"
	"inventory-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory service",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("inventory-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to database")

	var recordCache service.RecordCache
	cacheClient, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Inventory.CacheTTL)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		defer cacheClient.Close()
		recordCache = cacheClient
		logger.Info("Connected to Redis")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	publisher := broker.NewEventPublisher(producer)
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	hub := ws.NewHub()

	inventoryService := service.NewInventoryService(db, recordCache, publisher, hub, cfg.Inventory.LowStockThreshold)
	reservationService := service.NewReservationService(db, inventoryService, publisher, cfg.Inventory.ReservationTTL)
	transferService := service.NewTransferService(db, inventoryService, publisher)
	forecastService := service.NewForecastService(db, cfg.Inventory.ForecastLookbackDays)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	sweeper := worker.NewSweepWorker(reservationService, cfg.Inventory.SweepInterval)
	go func() {
		if err := sweeper.Start(workerCtx); err != nil {
			logger.Error("Sweep worker stopped", zap.Error(err))
		}
	}()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	notifier := worker.NewNotifyWorker(consumer, hub)
	go func() {
		if err := notifier.Start(workerCtx); err != nil {
			logger.Error("Notify worker stopped", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	handler := api.NewHandler(inventoryService, reservationService, transferService, forecastService, hub)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	workerCancel()
	if err := notifier.Stop(); err != nil {
		logger.Warn("Failed to stop notify worker", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shutdown tracer", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
