package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// invoiceHandler handles invoice generation, retrieval, cancellation and payment posting.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
}

func newInvoiceHandler(is portssvc.InvoiceSvcFacade, ls portssvc.LedgerSvcFacade) *invoiceHandler {
	return &invoiceHandler{invoiceService: is, ledgerService: ls}
}

// RegisterInvoiceRoutes registers invoice routes.
func RegisterInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := newInvoiceHandler(invoiceService, ledgerService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.generateInvoice)
		invoices.POST("/bulk", h.bulkGenerate)
		invoices.GET("/:invoiceID", h.getInvoice)
		invoices.POST("/:invoiceID/cancel", h.cancelInvoice)
		invoices.POST("/:invoiceID/payments", h.applyPayment)
	}
}

// generateInvoice godoc
// @Summary Generate an invoice for a student and term
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body dto.GenerateInvoiceRequest true "Student, year and term"
// @Success 201 {object} dto.InvoiceView
// @Failure 400 {object} map[string]string "Invalid input or student not enrolled"
// @Failure 404 {object} map[string]string "Unknown student, year or term"
// @Failure 409 {object} map[string]string "An active invoice already exists"
// @Failure 503 {object} map[string]string "Contention, retry"
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) generateInvoice(c *gin.Context) {
	var req dto.GenerateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	view, err := h.invoiceService.GenerateInvoice(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to generate invoice")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Invoice generated",
		slog.String("invoice_id", view.Invoice.ID),
		slog.String("invoice_number", view.Invoice.InvoiceNumber))
	c.JSON(http.StatusCreated, view)
}

// bulkGenerate bills many students. Per-student failures are reported in the body, not as an error status.
func (h *invoiceHandler) bulkGenerate(c *gin.Context) {
	var req dto.BulkGenerateRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	result, err := h.invoiceService.BulkGenerate(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to generate invoices")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Bulk invoice generation finished",
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Errors)))
	c.JSON(http.StatusOK, result)
}

func (h *invoiceHandler) getInvoice(c *gin.Context) {
	view, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	var req dto.CancelInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	view, err := h.invoiceService.CancelInvoice(c.Request.Context(), c.Param("invoiceID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to cancel invoice")
		return
	}
	c.JSON(http.StatusOK, view)
}

// applyPayment godoc
// @Summary Record a payment against an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoiceID path string true "Invoice ID"
// @Param payment body dto.ApplyPaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentView
// @Failure 400 {object} map[string]string "Non-positive amount or overpayment"
// @Failure 409 {object} map[string]string "Invoice cancelled"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/payments [post]
func (h *invoiceHandler) applyPayment(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	view, err := h.ledgerService.ApplyPayment(c.Request.Context(), c.Param("invoiceID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to apply payment")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Payment recorded",
		slog.String("payment_id", view.Payment.ID),
		slog.String("receipt_number", view.Payment.ReceiptNumber))
	c.JSON(http.StatusCreated, view)
}
