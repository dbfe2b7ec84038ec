package subscription_fx

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/api/controllers"
	"memberly/internal/repositories"
	"memberly/internal/services"
)

var Module = fx.Provide(
	provideSubscriptionRepo, provideStoredAuthorizationRepo,
	provideSubscriptionService, provideSubscriptionController,
)

func provideSubscriptionRepo(db *gorm.DB) repositories.ISubscriptionRepository {
	return repositories.NewSubscriptionRepository(db)
}

func provideStoredAuthorizationRepo(db *gorm.DB) repositories.IStoredAuthorizationRepository {
	return repositories.NewStoredAuthorizationRepository(db)
}

func provideSubscriptionService(
	subs repositories.ISubscriptionRepository,
	plans repositories.IPlanRepository,
	members repositories.IMemberRepository,
	auths repositories.IStoredAuthorizationRepository,
	invoiceSvc services.IInvoiceService,
	log *logrus.Logger,
) services.ISubscriptionService {
	return services.NewSubscriptionService(subs, plans, members, auths, invoiceSvc, log)
}

func provideSubscriptionController(subscriptionService services.ISubscriptionService) *controllers.SubscriptionController {
	return controllers.NewSubscriptionController(subscriptionService)
}
