package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventra-server/config"
	"inventra-server/internal/api"
	"inventra-server/internal/auth"
	"inventra-server/internal/broker"
	"inventra-server/internal/redisclient"
	"inventra-server/internal/service"
	"inventra-server/internal/store"
	"inventra-server/internal/util"
	"inventra-server/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory service")

	tp, err := util.InitTracer("inventra-server", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	recorder := service.NewRecorder(db, eventPublisher)
	limitService := service.NewLimitService(db, redisClient)
	stockService := service.NewStockService(db, limitService, recorder, eventPublisher)
	transferService := service.NewTransferService(db, recorder, eventPublisher)
	catalogService := service.NewCatalogService(db, limitService, recorder)

	sender := service.NewHTTPEmailSender(
		cfg.Email.APIBaseURL, cfg.Email.APIKey,
		cfg.Email.FromName, cfg.Email.FromEmail)
	notifier := service.NewNotifier(db, sender)

	orderService := service.NewOrderService(
		db, catalogService, limitService, recorder, notifier, eventPublisher)
	userService := service.NewUserService(db, limitService, recorder)
	reportService := service.NewReportService(db, limitService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	lowStockWorker := worker.NewLowStockWorker(
		db, notifier, eventPublisher, redisClient,
		time.Duration(cfg.Worker.LowStockIntervalSeconds)*time.Second)
	go func() {
		if err := lowStockWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Low-stock worker error: %v", err)
		}
	}()

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, "inventra-audit-group")
	auditWorker := worker.NewAuditWorker(auditConsumer, db)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Audit worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	resolver := auth.NewDBResolver(db)
	handler := api.NewHandler(
		resolver, stockService, transferService, catalogService,
		orderService, limitService, userService, reportService, recorder)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	auditWorker.Stop()

	log.Println("Server exited")
}
