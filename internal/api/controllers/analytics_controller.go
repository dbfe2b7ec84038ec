package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"memberly/internal/models/request_models"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

type AnalyticsController struct {
	analyticsService services.IAnalyticsService
}

func NewAnalyticsController(analyticsService services.IAnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

func (a *AnalyticsController) bindReportQuery(c *gin.Context) (uuid.UUID, request_models.AnalyticsQuery, bool) {
	orgID, ok := currentOrganizationID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "organization could not be resolved")
		return uuid.Nil, request_models.AnalyticsQuery{}, false
	}

	var query request_models.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return uuid.Nil, request_models.AnalyticsQuery{}, false
	}
	return orgID, query, true
}

// MRR godoc
// @Summary Monthly recurring revenue
// @Tags Analytics
// @Produce json
// @Param period query string false "today|week|month|quarter|year|custom"
// @Param startDate query string false "ISO date, custom period only"
// @Param endDate query string false "ISO date, custom period only"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /analytics/mrr [get]
func (a *AnalyticsController) MRR(c *gin.Context) {
	orgID, query, ok := a.bindReportQuery(c)
	if !ok {
		return
	}

	report, err := a.analyticsService.MRR(c.Request.Context(), orgID, query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "MRR report generated")
}

// Churn godoc
// @Summary Churn rate over a window
// @Tags Analytics
// @Produce json
// @Param period query string false "today|week|month|quarter|year|custom"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /analytics/churn [get]
func (a *AnalyticsController) Churn(c *gin.Context) {
	orgID, query, ok := a.bindReportQuery(c)
	if !ok {
		return
	}

	report, err := a.analyticsService.Churn(c.Request.Context(), orgID, query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "Churn report generated")
}

// Revenue godoc
// @Summary Collected revenue over a window
// @Tags Analytics
// @Produce json
// @Param period query string false "today|week|month|quarter|year|custom"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /analytics/revenue [get]
func (a *AnalyticsController) Revenue(c *gin.Context) {
	orgID, query, ok := a.bindReportQuery(c)
	if !ok {
		return
	}

	report, err := a.analyticsService.Revenue(c.Request.Context(), orgID, query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "Revenue report generated")
}

// PlanPerformance godoc
// @Summary Per-plan subscription and revenue breakdown
// @Tags Analytics
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /analytics/plans [get]
func (a *AnalyticsController) PlanPerformance(c *gin.Context) {
	orgID, ok := currentOrganizationID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "organization could not be resolved")
		return
	}

	report, err := a.analyticsService.PlanPerformance(c.Request.Context(), orgID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "Plan performance report generated")
}
