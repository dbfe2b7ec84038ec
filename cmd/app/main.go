package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"memberly/cmd/fx/analytics_fx"
	"memberly/cmd/fx/billing_fx"
	"memberly/cmd/fx/db_fx"
	"memberly/cmd/fx/member_fx"
	"memberly/cmd/fx/plan_fx"
	"memberly/cmd/fx/scheduler_fx"
	"memberly/cmd/fx/subscription_fx"
	"memberly/internal/api/controllers"
	"memberly/internal/models/db_models"
	"memberly/internal/services"
	"memberly/pkg/middleware"
	"memberly/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	app := fx.New(
		db_fx.Module,
		member_fx.Module,
		plan_fx.Module,
		subscription_fx.Module,
		billing_fx.Module,
		scheduler_fx.Module,
		analytics_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
		fx.Invoke(StartSweep),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func StartSweep(
	lc fx.Lifecycle,
	scheduler services.ISchedulerService,
	cfg services.BillingConfig,
	logger *logrus.Logger,
) {
	c := cron.New()
	_, err := c.AddFunc(cfg.SweepSchedule, func() {
		if err := scheduler.RunSweep(context.Background()); err != nil {
			logger.WithError(err).Error("billing sweep aborted")
		}
	})
	if err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", cfg.SweepSchedule, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.WithField("schedule", cfg.SweepSchedule).Info("billing sweep scheduled")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
}

func ProvideRouter(
	tokens *utils.TokenManager,
	authController *controllers.AuthController,
	planController *controllers.PlanController,
	subscriptionController *controllers.SubscriptionController,
	paymentController *controllers.PaymentController,
	invoiceController *controllers.InvoiceController,
	analyticsController *controllers.AnalyticsController,
) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, tokens,
		authController, planController, subscriptionController,
		paymentController, invoiceController, analyticsController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	tokens *utils.TokenManager,
	authController *controllers.AuthController,
	planController *controllers.PlanController,
	subscriptionController *controllers.SubscriptionController,
	paymentController *controllers.PaymentController,
	invoiceController *controllers.InvoiceController,
	analyticsController *controllers.AnalyticsController) {

	authGroup := r.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)

	// Provider callbacks carry their own HMAC signature, not a bearer token.
	r.POST("/webhooks/paystack", paymentController.Webhook)

	authed := r.Group("/", middleware.JWTAuthMiddleware(tokens))

	plansGroup := authed.Group("/plans")
	plansGroup.GET("", planController.List)
	plansGroup.GET("/:id", planController.GetByID)
	plansGroup.POST("", middleware.RoleMiddleware(db_models.RoleAdmin), planController.Create)
	plansGroup.DELETE("/:id", middleware.RoleMiddleware(db_models.RoleAdmin), planController.Deactivate)

	subsGroup := authed.Group("/subscriptions")
	subsGroup.POST("", subscriptionController.Subscribe)
	subsGroup.GET("", subscriptionController.List)
	subsGroup.GET("/:id", subscriptionController.Get)
	subsGroup.POST("/:id/cancel", subscriptionController.Cancel)
	subsGroup.POST("/:id/pause", subscriptionController.Pause)
	subsGroup.POST("/:id/resume", subscriptionController.Resume)

	paymentsGroup := authed.Group("/payments")
	paymentsGroup.POST("/checkout", paymentController.Checkout)
	paymentsGroup.GET("/verify/:reference", paymentController.Verify)

	invoicesGroup := authed.Group("/invoices")
	invoicesGroup.GET("/:id", invoiceController.Get)
	invoicesGroup.POST("/:id/cancel", middleware.RoleMiddleware(db_models.RoleAdmin), invoiceController.Cancel)

	analyticsGroup := authed.Group("/analytics", middleware.RoleMiddleware(db_models.RoleAdmin))
	analyticsGroup.GET("/mrr", analyticsController.MRR)
	analyticsGroup.GET("/churn", analyticsController.Churn)
	analyticsGroup.GET("/revenue", analyticsController.Revenue)
	analyticsGroup.GET("/plans", analyticsController.PlanPerformance)
}
