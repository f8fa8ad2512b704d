package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/handlers"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/kafka"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/middleware"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/presence"
	rediswrap "github.com/AmjedKhaled165/Qareeblak-sub000/internal/redis"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/resilience"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"

	"github.com/gin-gonic/gin"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Order core starting up...")
	log.Info("SYSTEM", "Initializing components...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	mysqlStore, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer mysqlStore.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	// Ledger calls go through a circuit breaker. Domain errors such as a
	// rejected transition never count against it.
	breaker := resilience.NewBreaker("ledger", cfg.Breaker, log, func(err error) bool {
		return err == nil || services.IsDomainError(err)
	})
	store := storage.NewResilientStore(mysqlStore, breaker)

	log.LogProcess("REDIS", "Initializing Redis client...")
	redisClient, err := rediswrap.NewClient(cfg.Redis, log)
	if err != nil {
		log.Fatal("REDIS", "Failed to connect to Redis: "+err.Error())
	}
	defer redisClient.Close()

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	orderService := services.NewOrderService(store, redisClient, redisClient, kafkaProducer, log, cfg.Orders)
	log.LogProcess("SERVICE", "Order service initialized")

	tracker := presence.NewTracker(cfg.Orders.PresenceTTL)

	orderHandler := handlers.NewOrderHandler(orderService)
	deliveryHandler := handlers.NewDeliveryHandler(orderService, tracker)
	courierHandler := handlers.NewCourierHandler(orderService, tracker)
	log.LogProcess("HANDLER", "All handlers initialized")

	// The notification worker consumes the events this process publishes.
	if !cfg.Kafka.MockMode {
		kafkaConsumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create Kafka consumer: "+err.Error())
		}
		defer kafkaConsumer.Close()

		notifier := services.NewNotifier(logSender{}, log)
		go func() {
			log.LogKafka("START", "consumer", "Starting Kafka consumer goroutine")
			if err := kafkaConsumer.ConsumeOrderEvents(context.Background(), notifier.HandleOrderEvent); err != nil {
				log.Error("KAFKA", "Consumer error: "+err.Error())
			}
		}()
	}

	router := setupRouter(orderHandler, deliveryHandler, courierHandler, store, redisClient)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "Order core is ready to accept requests")
		log.Info("STARTUP", "Health check available at: http://localhost:"+cfg.Server.Port+"/health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Order core shutdown completed successfully")
}

func setupRouter(orderHandler *handlers.OrderHandler, deliveryHandler *handlers.DeliveryHandler, courierHandler *handlers.CourierHandler, store storage.Store, redisClient *rediswrap.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders(log))
	router.Use(middleware.RateLimit(log))
	router.Use(middleware.Identity())

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}
		if err := store.HealthCheck(); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		}
		c.JSON(code, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
			"service":   "order-core",
			"version":   "1.0.0",
		})
	})

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("/checkout", orderHandler.Checkout)
			orders.GET("/:id", orderHandler.GetParentOrder)
			orders.POST("/:id/sync", orderHandler.SyncParent)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.GET("/:id", orderHandler.GetBooking)
			bookings.PUT("/:id/status", orderHandler.UpdateBookingStatus)
			bookings.PUT("/:id/appointment", orderHandler.RescheduleAppointment)
			bookings.POST("/:id/appointment/confirm", orderHandler.ConfirmAppointment)
		}

		deliveries := v1.Group("/deliveries")
		{
			deliveries.POST("", deliveryHandler.CreateManual)
			deliveries.GET("/:id", deliveryHandler.GetOrder)
			deliveries.PUT("/:id/status", deliveryHandler.UpdateStatus)
			deliveries.POST("/:id/assign", deliveryHandler.AutoAssign)
			deliveries.DELETE("/:id", deliveryHandler.Remove)
			deliveries.POST("/:id/restore", deliveryHandler.Restore)
			deliveries.PUT("/:id/edit", deliveryHandler.Edit)
			deliveries.GET("/:id/history", deliveryHandler.History)
		}

		couriers := v1.Group("/couriers")
		{
			couriers.POST("", courierHandler.Register)
			couriers.PUT("/:id/availability", courierHandler.SetAvailability)
			couriers.GET("/:id/workload", courierHandler.Workload)
			couriers.POST("/heartbeat", deliveryHandler.Heartbeat)
		}
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}

// logSender is the default notification backend: it only logs. Real push/SMS
// providers plug in behind services.NotificationSender.
type logSender struct{}

func (logSender) Send(ctx context.Context, userID, title, body string) error {
	log.LogProcess("NOTIFY", "["+title+"] to "+userID+": "+body)
	return nil
}
