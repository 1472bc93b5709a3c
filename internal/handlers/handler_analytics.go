package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// analyticsHandler serves read-only finance metrics.
type analyticsHandler struct {
	analyticsService portssvc.AnalyticsSvc
	defaulterDays    int
}

// RegisterAnalyticsRoutes registers the analytics routes. defaulterDays is used when a
// defaulters request omits its threshold.
func RegisterAnalyticsRoutes(rg *gin.RouterGroup, analyticsService portssvc.AnalyticsSvc, defaulterDays int) {
	h := &analyticsHandler{analyticsService: analyticsService, defaulterDays: defaulterDays}

	analytics := rg.Group("/analytics")
	{
		analytics.GET("/collection", h.collection)
		analytics.GET("/trends", h.trends)
		analytics.GET("/defaulters", h.defaulters)
		analytics.GET("/scholarship-impact", h.scholarshipImpact)
		analytics.GET("/dashboard", h.dashboard)
	}
}

func (h *analyticsHandler) collection(c *gin.Context) {
	var params dto.AnalyticsScopeParams
	if !bindQuery(c, &params) {
		return
	}
	metrics, err := h.analyticsService.CollectionMetrics(c.Request.Context(), params.Scope())
	if err != nil {
		respondError(c, err, "Failed to compute collection metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// trends godoc
// @Summary Daily collections over a date window
// @Description The response is marked incomplete when the computation ran out of time.
// @Tags analytics
// @Produce json
// @Param academicYearID query string true "Academic year"
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {object} domain.PaymentTrends
// @Security BearerAuth
// @Router /analytics/trends [get]
func (h *analyticsHandler) trends(c *gin.Context) {
	var params dto.PaymentTrendsParams
	if !bindQuery(c, &params) {
		return
	}
	from, err := domain.ParseDate(params.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
		return
	}
	to, err := domain.ParseDate(params.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
		return
	}

	trends, err := h.analyticsService.PaymentTrends(c.Request.Context(), params.Scope(), from, to)
	if err != nil {
		respondError(c, err, "Failed to compute payment trends")
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (h *analyticsHandler) defaulters(c *gin.Context) {
	var params dto.DefaulterParams
	if !bindQuery(c, &params) {
		return
	}
	days := h.defaulterDays
	if params.Days != nil {
		days = *params.Days
	}
	report, err := h.analyticsService.Defaulters(c.Request.Context(), params.Scope(), days)
	if err != nil {
		respondError(c, err, "Failed to list defaulters")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *analyticsHandler) scholarshipImpact(c *gin.Context) {
	var params dto.AnalyticsScopeParams
	if !bindQuery(c, &params) {
		return
	}
	impact, err := h.analyticsService.ScholarshipImpact(c.Request.Context(), params.Scope())
	if err != nil {
		respondError(c, err, "Failed to compute scholarship impact")
		return
	}
	c.JSON(http.StatusOK, impact)
}

func (h *analyticsHandler) dashboard(c *gin.Context) {
	var params dto.AnalyticsScopeParams
	if !bindQuery(c, &params) {
		return
	}
	dashboard, err := h.analyticsService.Dashboard(c.Request.Context(), params.Scope())
	if err != nil {
		respondError(c, err, "Failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
