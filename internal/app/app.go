package app

import (
	"context"
	"fmt"
	"time"

	"tradehub_backend/internal/config"
	"tradehub_backend/internal/email"
	"tradehub_backend/internal/handlers"
	"tradehub_backend/internal/logger"
	"tradehub_backend/internal/middleware"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/payments"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/internal/routes"
	"tradehub_backend/internal/services"
	"tradehub_backend/internal/validator"
	"tradehub_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ginRouter, billingWorker := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	billingWorker.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *workers.BillingWorker) {
	serviceContainer := initializeServices(cfg, gormDB)
	appHandlers := initializeHandlers(serviceContainer)

	billingWorker := workers.NewBillingWorker(
		serviceContainer.BillingService,
		repositories.NewLeadRepository(gormDB),
		time.Duration(cfg.Billing.ExpirationSweepHours)*time.Hour,
	)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, billingWorker
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(gormDB)
	traderRepo := repositories.NewTraderRepository(gormDB)
	leadRepo := repositories.NewLeadRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)
	jobRepo := repositories.NewJobRepository(gormDB)

	authorizer := payments.NewSandboxAuthorizer()
	mailer := email.NewMailer(cfg)

	billingService := services.NewBillingService(gormDB, traderRepo, leadRepo, paymentRepo, jobRepo, authorizer)
	billingService.SetExpiryNotifier(userRepo, mailer)

	return &services.ServiceContainer{
		AuthService:    services.NewAuthService(userRepo),
		TraderService:  services.NewTraderService(gormDB, traderRepo, paymentRepo),
		BillingService: billingService,
		JobService:     services.NewJobService(jobRepo, traderRepo, leadRepo),
		UserRepo:       userRepo,
	}
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, container.AuthService),
		PlanHandler:    handlers.NewPlanHandler(baseHandler),
		BillingHandler: handlers.NewBillingHandler(baseHandler, container.BillingService),
		TraderHandler:  handlers.NewTraderHandler(baseHandler, container.TraderService),
		JobHandler:     handlers.NewJobHandler(baseHandler, container.JobService, container.UserRepo),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.TraderProfile{},
		&models.TraderAccount{},
		&models.Job{},
		&models.LeadUnlock{},
		&models.LeadUsage{},
		&models.PaymentTransaction{},
		&models.FeaturedListing{},
	)
}
