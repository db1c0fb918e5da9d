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

	"rxmatch-service/config"
	"rxmatch-service/internal/api"
	"rxmatch-service/internal/broker"
	"rxmatch-service/internal/mailer"
	"rxmatch-service/internal/redisclient"
	"rxmatch-service/internal/service"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"
	"rxmatch-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting rxmatch service")

	tp, err := util.InitTracer("rxmatch-service", cfg.Observ.JaegerEndpoint)
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

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMatches)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	matcher := service.NewMatcherService(db, redisClient, eventPublisher)
	dashboard := service.NewDashboardService(db, redisClient,
		time.Duration(cfg.Matcher.ViewCacheTTLSeconds)*time.Second)
	prescriptions := service.NewPrescriptionService(db, matcher, eventPublisher)

	var mail mailer.Mailer
	if cfg.Mail.Enabled {
		mail = mailer.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	} else {
		mail = mailer.NewLogMailer()
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	matchConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicMatches, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(matchConsumer, db, mail)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(prescriptions, matcher, dashboard, db)
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
	notificationWorker.Stop()

	log.Println("Server exited")
}
