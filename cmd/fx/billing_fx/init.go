package billing_fx

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/api/controllers"
	"memberly/internal/gateway"
	"memberly/internal/repositories"
	"memberly/internal/services"
)

var Module = fx.Provide(
	provideInvoiceRepo, providePaymentRepo, provideTxManager,
	provideGateway, provideNotificationService,
	provideInvoiceService, provideWebhookService, providePaymentService,
	providePaymentController, provideInvoiceController,
)

func provideInvoiceRepo(db *gorm.DB) repositories.IInvoiceRepository {
	return repositories.NewInvoiceRepository(db)
}

func providePaymentRepo(db *gorm.DB) repositories.IPaymentRepository {
	return repositories.NewPaymentRepository(db)
}

func provideTxManager(db *gorm.DB) repositories.ITxManager {
	return repositories.NewTxManager(db)
}

func provideGateway() gateway.Gateway {
	cfg := gateway.Config{
		SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		BaseURL:     os.Getenv("PAYSTACK_BASE_URL"),
		CallbackURL: os.Getenv("CHECKOUT_CALLBACK_URL"),
		Provider:    "paystack",
		Timeout:     30 * time.Second,
	}
	client, err := gateway.NewClient(cfg)
	if err != nil {
		log.Fatalf("Error initializing payment gateway: %v", err)
	}
	return client
}

func provideNotificationService(logger *logrus.Logger) services.INotificationService {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	cfg := services.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		FromName: os.Getenv("SMTP_FROM_NAME"),
		AppName:  os.Getenv("APP_NAME"),
	}
	return services.NewSMTPNotificationService(cfg, logger)
}

func provideInvoiceService(
	invoices repositories.IInvoiceRepository,
	orgs repositories.IOrganizationRepository,
	logger *logrus.Logger,
) services.IInvoiceService {
	return services.NewInvoiceService(invoices, orgs, logger)
}

func provideWebhookService(
	gw gateway.Gateway,
	txm repositories.ITxManager,
	notifier services.INotificationService,
	logger *logrus.Logger,
) services.IWebhookService {
	return services.NewWebhookService(gw, txm, notifier, logger)
}

func providePaymentService(
	payments repositories.IPaymentRepository,
	invoices repositories.IInvoiceRepository,
	members repositories.IMemberRepository,
	gw gateway.Gateway,
	reconciler services.IWebhookService,
	logger *logrus.Logger,
) services.IPaymentService {
	return services.NewPaymentService(payments, invoices, members, gw, reconciler, logger)
}

func providePaymentController(
	paymentService services.IPaymentService,
	webhookService services.IWebhookService,
	logger *logrus.Logger,
) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService, webhookService, logger)
}

func provideInvoiceController(invoiceService services.IInvoiceService) *controllers.InvoiceController {
	return controllers.NewInvoiceController(invoiceService)
}
