package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"memberly/internal/models/request_models"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

const maxWebhookBody = 1 << 20

type PaymentController struct {
	paymentService services.IPaymentService
	webhookService services.IWebhookService
	log            *logrus.Logger
}

func NewPaymentController(
	paymentService services.IPaymentService,
	webhookService services.IWebhookService,
	log *logrus.Logger,
) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		webhookService: webhookService,
		log:            log,
	}
}

// Checkout godoc
// @Summary Start checkout for an invoice
// @Description Creates a payment attempt and returns the gateway's hosted payment URL
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CheckoutRequest true "Checkout payload"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/checkout [post]
func (p *PaymentController) Checkout(c *gin.Context) {
	var req request_models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	resp, err := p.paymentService.InitializeCheckout(c.Request.Context(), memberID, invoiceID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Checkout initialized successfully")
}

// Verify godoc
// @Summary Verify a payment reference
// @Description Polls the gateway for the outcome and reconciles it; safe to call repeatedly
// @Tags Payments
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/verify/{reference} [get]
func (p *PaymentController) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		utils.RespondError(c, http.StatusBadRequest, "reference is required")
		return
	}

	resp, err := p.paymentService.VerifyCheckout(c.Request.Context(), reference)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Payment verified")
}

// Webhook receives provider charge events. The signature is verified over
// the raw body before any parsing. Events referencing unknown payments are
// acknowledged and discarded so the provider stops retrying them.
func (p *PaymentController) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	err = p.webhookService.HandleEvent(c.Request.Context(), body, signature)
	switch {
	case err == nil:
		utils.RespondSuccess(c, nil, "Event processed")
	case errors.Is(err, utils.ErrNotFound):
		p.log.WithError(err).Warn("webhook referenced unknown payment; discarded")
		utils.RespondSuccess(c, nil, "Event discarded")
	default:
		utils.HandleServiceError(c, err)
	}
}
