package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// scholarshipHandler handles scholarship administration and assignment transitions.
type scholarshipHandler struct {
	scholarshipService portssvc.ScholarshipSvcFacade
}

func newScholarshipHandler(ss portssvc.ScholarshipSvcFacade) *scholarshipHandler {
	return &scholarshipHandler{scholarshipService: ss}
}

// RegisterScholarshipRoutes registers routes for scholarships and their assignments.
func RegisterScholarshipRoutes(rg *gin.RouterGroup, scholarshipService portssvc.ScholarshipSvcFacade) {
	h := newScholarshipHandler(scholarshipService)

	scholarships := rg.Group("/scholarships")
	{
		scholarships.POST("", h.createScholarship)
		scholarships.GET("", h.listScholarships)
		scholarships.GET("/:scholarshipID", h.getScholarship)
		scholarships.GET("/:scholarshipID/assignments", h.listAssignments)
	}

	assignments := rg.Group("/scholarship-assignments")
	{
		assignments.POST("", h.assignScholarship)
		assignments.POST("/:assignmentID/approve", h.approveAssignment)
		assignments.POST("/:assignmentID/suspend", h.suspendAssignment)
		assignments.POST("/:assignmentID/terminate", h.terminateAssignment)
	}
}

// createScholarship godoc
// @Summary Create a scholarship program for an academic year
// @Tags scholarships
// @Accept json
// @Produce json
// @Param scholarship body dto.CreateScholarshipRequest true "Scholarship details"
// @Success 201 {object} domain.Scholarship
// @Failure 400 {object} map[string]string "Invalid discount"
// @Security BearerAuth
// @Router /scholarships [post]
func (h *scholarshipHandler) createScholarship(c *gin.Context) {
	var req dto.CreateScholarshipRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	sch, err := h.scholarshipService.CreateScholarship(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create scholarship")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Scholarship created", slog.String("scholarship_id", sch.ID))
	c.JSON(http.StatusCreated, sch)
}

func (h *scholarshipHandler) listScholarships(c *gin.Context) {
	yearID := c.Query("academicYearID")
	if yearID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "academicYearID is required"})
		return
	}
	list, err := h.scholarshipService.ListScholarships(c.Request.Context(), yearID)
	if err != nil {
		respondError(c, err, "Failed to list scholarships")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *scholarshipHandler) getScholarship(c *gin.Context) {
	sch, err := h.scholarshipService.GetScholarship(c.Request.Context(), c.Param("scholarshipID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve scholarship")
		return
	}
	c.JSON(http.StatusOK, sch)
}

func (h *scholarshipHandler) listAssignments(c *gin.Context) {
	list, err := h.scholarshipService.ListAssignments(c.Request.Context(), c.Param("scholarshipID"))
	if err != nil {
		respondError(c, err, "Failed to list scholarship assignments")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *scholarshipHandler) assignScholarship(c *gin.Context) {
	var req dto.AssignScholarshipRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	assignment, err := h.scholarshipService.AssignScholarship(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to assign scholarship")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// approveAssignment answers 409 when the scholarship has no free slot.
func (h *scholarshipHandler) approveAssignment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	assignment, err := h.scholarshipService.ApproveScholarship(c.Request.Context(), c.Param("assignmentID"), actor)
	if err != nil {
		respondError(c, err, "Failed to approve scholarship assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *scholarshipHandler) suspendAssignment(c *gin.Context) {
	var req dto.ScholarshipTransitionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	assignment, err := h.scholarshipService.SuspendScholarship(c.Request.Context(), c.Param("assignmentID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to suspend scholarship assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func (h *scholarshipHandler) terminateAssignment(c *gin.Context) {
	var req dto.ScholarshipTransitionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	assignment, err := h.scholarshipService.TerminateScholarship(c.Request.Context(), c.Param("assignmentID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to terminate scholarship assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}
