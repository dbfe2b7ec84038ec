package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"memberly/internal/models/request_models"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

type PlanController struct {
	planService services.IPlanService
}

func NewPlanController(planService services.IPlanService) *PlanController {
	return &PlanController{planService: planService}
}

// Create godoc
// @Summary Create a billing plan
// @Description Create a plan under the admin's organization
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body request_models.CreatePlanRequest true "Plan payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans [post]
func (p *PlanController) Create(c *gin.Context) {
	var req request_models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	orgID, ok := currentOrganizationID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "organization could not be resolved")
		return
	}

	plan, err := p.planService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plan, "Plan created successfully")
}

// GetByID godoc
// @Summary Get a plan
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /plans/{id} [get]
func (p *PlanController) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid plan id")
		return
	}

	plan, err := p.planService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plan, "Plan fetched successfully")
}

// List godoc
// @Summary List plans for the member's organization
// @Tags Plans
// @Produce json
// @Param all query bool false "Include deactivated plans"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans [get]
func (p *PlanController) List(c *gin.Context) {
	orgID, ok := currentOrganizationID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "organization could not be resolved")
		return
	}

	activeOnly := c.Query("all") != "true"
	plans, err := p.planService.List(c.Request.Context(), orgID, activeOnly)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// Deactivate godoc
// @Summary Deactivate a plan
// @Description Stops new subscriptions; existing subscriptions keep renewing
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /plans/{id} [delete]
func (p *PlanController) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid plan id")
		return
	}

	if err := p.planService.Deactivate(c.Request.Context(), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Plan deactivated successfully")
}
