package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
)

// studentHandler serves the per-student finance views.
type studentHandler struct {
	invoiceService     portssvc.InvoiceSvcFacade
	scholarshipService portssvc.ScholarshipSvcFacade
}

// RegisterStudentRoutes registers routes nested under a student.
func RegisterStudentRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, scholarshipService portssvc.ScholarshipSvcFacade) {
	h := &studentHandler{invoiceService: invoiceService, scholarshipService: scholarshipService}

	students := rg.Group("/students/:studentID")
	{
		students.GET("/fees", h.resolveFees)
		students.GET("/invoices", h.listInvoices)
		students.GET("/scholarships", h.listScholarships)
		students.GET("/scholarships/effective", h.effectiveScholarships)
	}
}

// resolveFees godoc
// @Summary Preview what a student owes for a term
// @Description Computes the fee breakdown without issuing an invoice.
// @Tags students
// @Produce json
// @Param studentID path string true "Student ID"
// @Param academicYearID query string true "Academic year"
// @Param termID query string true "Term"
// @Success 200 {object} domain.FeeBreakdown
// @Failure 400 {object} map[string]string "Student not enrolled in the year"
// @Failure 404 {object} map[string]string "Unknown student, year or term"
// @Security BearerAuth
// @Router /students/{studentID}/fees [get]
func (h *studentHandler) resolveFees(c *gin.Context) {
	var params dto.ResolveFeesParams
	if !bindQuery(c, &params) {
		return
	}
	breakdown, err := h.invoiceService.ResolveFees(c.Request.Context(), c.Param("studentID"), params.AcademicYearID, params.TermID)
	if err != nil {
		respondError(c, err, "Failed to resolve fees")
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// listInvoices pages through a student's invoices, newest first.
func (h *studentHandler) listInvoices(c *gin.Context) {
	var params dto.ListInvoicesParams
	if !bindQuery(c, &params) {
		return
	}
	resp, err := h.invoiceService.ListStudentInvoices(c.Request.Context(), c.Param("studentID"), params)
	if err != nil {
		respondError(c, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *studentHandler) listScholarships(c *gin.Context) {
	list, err := h.scholarshipService.ListStudentAssignments(c.Request.Context(), c.Param("studentID"))
	if err != nil {
		respondError(c, err, "Failed to list student scholarships")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *studentHandler) effectiveScholarships(c *gin.Context) {
	var params dto.ResolveFeesParams
	if !bindQuery(c, &params) {
		return
	}
	effective, err := h.scholarshipService.EffectiveScholarships(c.Request.Context(), c.Param("studentID"), params.AcademicYearID, params.TermID, domain.DateOf(time.Now()))
	if err != nil {
		respondError(c, err, "Failed to resolve effective scholarships")
		return
	}
	c.JSON(http.StatusOK, effective)
}
