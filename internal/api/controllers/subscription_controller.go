package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"memberly/internal/models/request_models"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.ISubscriptionService
}

func NewSubscriptionController(subscriptionService services.ISubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

// Subscribe godoc
// @Summary Subscribe the member to a plan
// @Description Creates the subscription; without a trial the first invoice is issued immediately
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.SubscribeRequest true "Subscribe payload"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions [post]
func (s *SubscriptionController) Subscribe(c *gin.Context) {
	var req request_models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	resp, err := s.subscriptionService.Create(c.Request.Context(), memberID, req.PlanCode, req.Metadata)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Subscription created successfully")
}

// Get godoc
// @Summary Get one of the member's subscriptions
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id} [get]
func (s *SubscriptionController) Get(c *gin.Context) {
	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	resp, err := s.subscriptionService.Get(c.Request.Context(), memberID, subID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Subscription fetched successfully")
}

// List godoc
// @Summary List the member's subscriptions
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions [get]
func (s *SubscriptionController) List(c *gin.Context) {
	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	resp, err := s.subscriptionService.ListForMember(c.Request.Context(), memberID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Subscriptions fetched successfully")
}

// Cancel godoc
// @Summary Cancel a subscription
// @Description Immediate cancellation; stored card authorization is invalidated
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/cancel [post]
func (s *SubscriptionController) Cancel(c *gin.Context) {
	s.transition(c, s.subscriptionService.Cancel, "Subscription canceled successfully")
}

// Pause godoc
// @Summary Pause an active subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/pause [post]
func (s *SubscriptionController) Pause(c *gin.Context) {
	s.transition(c, s.subscriptionService.Pause, "Subscription paused successfully")
}

// Resume godoc
// @Summary Resume a paused subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/resume [post]
func (s *SubscriptionController) Resume(c *gin.Context) {
	s.transition(c, s.subscriptionService.Resume, "Subscription resumed successfully")
}

func (s *SubscriptionController) transition(c *gin.Context, op func(ctx context.Context, memberID, subscriptionID uuid.UUID) error, okMessage string) {
	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	if err := op(c.Request.Context(), memberID, subID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, okMessage)
}
