package scheduler_fx

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"

	"memberly/internal/gateway"
	"memberly/internal/repositories"
	"memberly/internal/services"
)

var Module = fx.Provide(
	provideBillingConfig, provideSchedulerService)

func provideBillingConfig() services.BillingConfig {
	cfg := services.BillingConfig{
		SweepSchedule: os.Getenv("BILLING_SWEEP_SCHEDULE"),
	}
	if n, err := strconv.Atoi(os.Getenv("BILLING_BATCH_SIZE")); err == nil {
		cfg.BatchSize = n
	}
	if n, err := strconv.Atoi(os.Getenv("BILLING_MAX_RENEW_FAILURES")); err == nil {
		cfg.MaxRenewFailures = n
	}
	if d, err := time.ParseDuration(os.Getenv("BILLING_CHARGE_TIMEOUT")); err == nil {
		cfg.ChargeTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("BILLING_EXPIRY_GRACE")); err == nil {
		cfg.ExpiryGrace = d
	}
	return cfg.WithDefaults()
}

func provideSchedulerService(
	subs repositories.ISubscriptionRepository,
	invoices repositories.IInvoiceRepository,
	members repositories.IMemberRepository,
	auths repositories.IStoredAuthorizationRepository,
	payments repositories.IPaymentRepository,
	invoiceSvc services.IInvoiceService,
	reconciler services.IWebhookService,
	gw gateway.Gateway,
	notifier services.INotificationService,
	cfg services.BillingConfig,
	logger *logrus.Logger,
) services.ISchedulerService {
	return services.NewSchedulerService(
		subs, invoices, members, auths, payments,
		invoiceSvc, reconciler, gw, notifier, cfg, logger)
}
