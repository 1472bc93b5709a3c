package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// paymentHandler handles ledger entry transitions.
type paymentHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// RegisterPaymentRoutes registers ledger routes.
func RegisterPaymentRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &paymentHandler{ledgerService: ledgerService}

	payments := rg.Group("/payments")
	{
		payments.POST("/allocate", h.allocatePayment)
		payments.GET("/:paymentID", h.getPayment)
		payments.POST("/:paymentID/confirm", h.confirmPayment)
		payments.POST("/:paymentID/fail", h.failPayment)
		payments.POST("/:paymentID/refunds", h.refundPayment)
	}
}

func (h *paymentHandler) getPayment(c *gin.Context) {
	view, err := h.ledgerService.GetPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *paymentHandler) confirmPayment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	view, err := h.ledgerService.ConfirmPayment(c.Request.Context(), c.Param("paymentID"), actor)
	if err != nil {
		respondError(c, err, "Failed to confirm payment")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *paymentHandler) failPayment(c *gin.Context) {
	var req dto.FailPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	view, err := h.ledgerService.FailPayment(c.Request.Context(), c.Param("paymentID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to mark payment as failed")
		return
	}
	c.JSON(http.StatusOK, view)
}

// refundPayment posts a refund entry against a completed payment.
// The refunded total may never exceed the original amount (409).
func (h *paymentHandler) refundPayment(c *gin.Context) {
	var req dto.RefundRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	view, err := h.ledgerService.Refund(c.Request.Context(), c.Param("paymentID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to refund payment")
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *paymentHandler) allocatePayment(c *gin.Context) {
	var req dto.AllocatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	result, err := h.ledgerService.AllocatePayment(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to allocate payment")
		return
	}
	c.JSON(http.StatusOK, result)
}
