package plan_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/api/controllers"
	"memberly/internal/repositories"
	"memberly/internal/services"
)

var Module = fx.Provide(
	providePlanRepo, providePlanService, providePlanController)

func providePlanRepo(db *gorm.DB) repositories.IPlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(planRepo repositories.IPlanRepository) services.IPlanService {
	return services.NewPlanService(planRepo)
}

func providePlanController(planService services.IPlanService) *controllers.PlanController {
	return controllers.NewPlanController(planService)
}
