package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// jobsHandler triggers the periodic jobs on demand and serves the audit trail.
type jobsHandler struct {
	lateFeeService portssvc.LateFeeSvc
	invoiceService portssvc.InvoiceSvcFacade
	auditService   portssvc.AuditSvc
}

// RegisterJobRoutes registers the job trigger and audit routes.
func RegisterJobRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &jobsHandler{
		lateFeeService: services.LateFee,
		invoiceService: services.Invoice,
		auditService:   services.Audit,
	}

	jobs := rg.Group("/jobs")
	{
		jobs.POST("/late-fees", h.accrueLateFees)
		jobs.POST("/refresh-statuses", h.refreshStatuses)
	}
	rg.GET("/audit/:entityType/:entityID", h.listAudit)
}

// asOf reads the optional asOf query date, defaulting to today.
func asOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return domain.DateOf(time.Now()), true
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be a YYYY-MM-DD date"})
		return time.Time{}, false
	}
	return d, true
}

func (h *jobsHandler) accrueLateFees(c *gin.Context) {
	today, ok := asOf(c)
	if !ok {
		return
	}
	run, err := h.lateFeeService.AccrueLateFees(c.Request.Context(), today)
	if err != nil {
		respondError(c, err, "Failed to accrue late fees")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Late fee accrual finished",
		slog.String("accrual_month", run.AccrualMonth),
		slog.Int("created", len(run.Created)),
		slog.Int("unbilled", run.Unbilled))
	c.JSON(http.StatusOK, run)
}

func (h *jobsHandler) refreshStatuses(c *gin.Context) {
	today, ok := asOf(c)
	if !ok {
		return
	}
	changed, err := h.invoiceService.RefreshStatuses(c.Request.Context(), today)
	if err != nil {
		respondError(c, err, "Failed to refresh invoice statuses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *jobsHandler) listAudit(c *gin.Context) {
	entries, err := h.auditService.ListAudit(c.Request.Context(), c.Param("entityType"), c.Param("entityID"))
	if err != nil {
		respondError(c, err, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, entries)
}
