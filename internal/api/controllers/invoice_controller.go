package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"memberly/internal/models/db_models"
	"memberly/internal/models/response_models"
	"memberly/internal/services"
	"memberly/pkg/utils"
)

type InvoiceController struct {
	invoiceService services.IInvoiceService
}

func NewInvoiceController(invoiceService services.IInvoiceService) *InvoiceController {
	return &InvoiceController{invoiceService: invoiceService}
}

// Get godoc
// @Summary Get an invoice
// @Description Members see their own invoices; admins see any
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (i *InvoiceController) Get(c *gin.Context) {
	memberID, ok := currentMemberID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "member could not be resolved")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	invoice, err := i.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if c.GetString("Role") != db_models.RoleAdmin && invoice.MemberID != memberID {
		utils.RespondError(c, http.StatusNotFound, "invoice not found")
		return
	}

	utils.RespondSuccess(c, toInvoiceResponse(invoice), "Invoice fetched successfully")
}

// Cancel godoc
// @Summary Cancel an open invoice
// @Description Admin only; paid or already-canceled invoices are rejected
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/cancel [post]
func (i *InvoiceController) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	if err := i.invoiceService.Cancel(c.Request.Context(), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Invoice canceled successfully")
}

func toInvoiceResponse(invoice *db_models.Invoice) response_models.InvoiceResponse {
	return response_models.InvoiceResponse{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		PlanName:      invoice.PlanName,
		Amount:        invoice.Amount.StringFixed(2),
		Currency:      invoice.Currency,
		Status:        string(invoice.Status),
		DueDate:       invoice.DueDate,
		PaidAt:        invoice.PaidAt,
	}
}
