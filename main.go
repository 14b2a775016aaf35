package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tecnicosrd/config"
	"tecnicosrd/cron"
	"tecnicosrd/database"
	"tecnicosrd/database/repository"
	"tecnicosrd/handlers"
	"tecnicosrd/routes"
	"tecnicosrd/services/admin"
	"tecnicosrd/services/booking"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/notification"
	"tecnicosrd/services/payment"
	"tecnicosrd/services/review"
	"tecnicosrd/services/storage"
	"tecnicosrd/services/tasks"
	"tecnicosrd/services/technician"
	"tecnicosrd/services/user"
	"tecnicosrd/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitRedis()
	loc := config.Location()

	repos := repository.NewRepositories(database.DB())

	// services.
	gamificationService := gamification.NewGamificationService(repos.Gamification, utils.NewRedisJSONCache(utils.GetCacheClient()))

	userService := &user.DefaultUserService{
		Repo:        repos.Users,
		AuthCache:   utils.NewRedisJSONCache(utils.GetAuthCacheClient()),
		Rewards:     gamificationService,
		Technicians: repos.Technicians,
		TokenTTL:    config.JWTTTL(),
	}

	imageStore, err := storage.NewFromConfig(config.AppConfig)
	if err != nil {
		logger.Fatal("main: failed to initialize image storage", zap.Error(err))
	}
	technicianService := technician.NewTechnicianService(repos.Technicians, repos.Users, imageStore)

	var gateway payment.Gateway
	if config.AppConfig.StripeKey != "" {
		gateway = payment.NewStripeGateway(config.AppConfig.StripeKey)
	} else {
		logger.Warn("STRIPE_KEY not set; card payments disabled")
	}
	paymentService := payment.NewPaymentService(gateway, config.AppConfig.Currency)

	notificationService, err := notification.New(rootCtx, config.AppConfig.FirebaseCredentialsFile, repos.Users)
	if err != nil {
		logger.Fatal("main: failed to initialize push notifications", zap.Error(err))
	}

	queueClient := asynq.NewClient(cron.QueueRedisOpt())
	defer queueClient.Close()
	reminders := tasks.NewAsynqReminderScheduler(queueClient)

	sessionTTL := time.Duration(config.AppConfig.BookingSessionTTLMinutes) * time.Minute
	bookingService := booking.NewBookingService(
		repos.Bookings,
		repos.Technicians,
		booking.NewSessionStoreFromCache(utils.NewRedisJSONCache(utils.GetBookingCacheClient()), sessionTTL),
		paymentService,
		reminders,
		notificationService,
		gamificationService,
		booking.Options{
			HorizonDays: config.AppConfig.BookingHorizonDays,
			SessionTTL:  sessionTTL,
			FeeRate:     config.AppConfig.PlatformFeeRate,
			Currency:    config.AppConfig.Currency,
			Location:    loc,
		},
	)

	reviewService := review.NewReviewService(repos.Reviews, repos.Bookings, repos.Technicians, repos.Users, gamificationService, notificationService)
	adminService := admin.NewAdminService(repos.Stats, utils.NewRedisJSONCache(utils.GetCacheClient()), config.AppConfig.Currency, loc)

	// background work.
	utils.StartHealthMonitor(rootCtx, utils.RedisClients(), database.MongoClient)

	scheduler, err := cron.NewScheduler(cron.Jobs{
		Bookings:    bookingService,
		Leaderboard: gamificationService,
		Dashboard:   adminService,
	}, loc)
	if err != nil {
		logger.Fatal("main: failed to schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	worker := cron.NewReminderWorker(cron.QueueRedisOpt(), repos.Bookings, notificationService)
	if err := worker.Start(); err != nil {
		logger.Fatal("main: reminder worker failed to start", zap.Error(err))
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Auth:          handlers.NewAuthHandler(userService),
		Users:         handlers.NewUserHandler(userService),
		Technicians:   handlers.NewTechnicianHandler(technicianService, bookingService, reviewService),
		Bookings:      handlers.NewBookingHandler(bookingService, reviewService),
		Gamification:  handlers.NewGamificationHandler(gamificationService),
		Admin:         handlers.NewAdminHandler(adminService, userService, technicianService, gamificationService, loc),
		Authenticator: userService,
		AdminToken:    config.AppConfig.AdminToken,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", config.AppConfig.Env))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)
	worker.Shutdown()
	stop()
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
