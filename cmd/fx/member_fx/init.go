package member_fx

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"memberly/internal/api/controllers"
	"memberly/internal/repositories"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

var Module = fx.Provide(
	provideTokenManager,
	provideMemberRepo, provideOrganizationRepo,
	provideMemberService, provideAuthController,
)

func provideTokenManager() *utils.TokenManager {
	ttl := 24 * time.Hour
	if hours, err := strconv.Atoi(os.Getenv("JWT_TTL_HOURS")); err == nil && hours > 0 {
		ttl = time.Duration(hours) * time.Hour
	}
	return utils.NewTokenManager(os.Getenv("JWT_SECRET"), ttl)
}

func provideMemberRepo(db *gorm.DB) repositories.IMemberRepository {
	return repositories.NewMemberRepository(db)
}

func provideOrganizationRepo(db *gorm.DB) repositories.IOrganizationRepository {
	return repositories.NewOrganizationRepository(db)
}

func provideMemberService(
	members repositories.IMemberRepository,
	orgs repositories.IOrganizationRepository,
	tokens *utils.TokenManager,
) services.IMemberService {
	return services.NewMemberService(members, orgs, tokens)
}

func provideAuthController(memberService services.IMemberService) *controllers.AuthController {
	return controllers.NewAuthController(memberService)
}
