package analytics_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/api/controllers"
	"memberly/internal/repositories"
	"memberly/internal/services"
)

var Module = fx.Provide(
	provideAnalyticsRepo, provideAnalyticsService, provideAnalyticsController)

func provideAnalyticsRepo(db *gorm.DB) repositories.IAnalyticsRepository {
	return repositories.NewAnalyticsRepository(db)
}

func provideAnalyticsService(repo repositories.IAnalyticsRepository) services.IAnalyticsService {
	return services.NewAnalyticsService(repo)
}

func provideAnalyticsController(analyticsService services.IAnalyticsService) *controllers.AnalyticsController {
	return controllers.NewAnalyticsController(analyticsService)
}
