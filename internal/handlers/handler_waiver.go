package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

type waiverHandler struct {
	waiverService portssvc.WaiverSvcFacade
}

// RegisterWaiverRoutes registers the waiver workflow routes.
func RegisterWaiverRoutes(rg *gin.RouterGroup, waiverService portssvc.WaiverSvcFacade) {
	h := &waiverHandler{waiverService: waiverService}

	waivers := rg.Group("/waivers")
	{
		waivers.POST("", h.requestWaiver)
		waivers.GET("/:waiverID", h.getWaiver)
		waivers.POST("/:waiverID/approve", h.approveWaiver)
		waivers.POST("/:waiverID/reject", h.rejectWaiver)
	}
}

func (h *waiverHandler) requestWaiver(c *gin.Context) {
	var req dto.RequestWaiverRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	w, err := h.waiverService.RequestWaiver(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to request waiver")
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *waiverHandler) getWaiver(c *gin.Context) {
	view, err := h.waiverService.GetWaiver(c.Request.Context(), c.Param("waiverID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve waiver")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *waiverHandler) approveWaiver(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	view, err := h.waiverService.ApproveWaiver(c.Request.Context(), c.Param("waiverID"), actor)
	if err != nil {
		respondError(c, err, "Failed to approve waiver")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *waiverHandler) rejectWaiver(c *gin.Context) {
	var req dto.RejectWaiverRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	view, err := h.waiverService.RejectWaiver(c.Request.Context(), c.Param("waiverID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to reject waiver")
		return
	}
	c.JSON(http.StatusOK, view)
}
