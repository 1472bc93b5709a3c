package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/dto"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// catalogHandler handles HTTP requests for fee categories, structures and special fees.
type catalogHandler struct {
	catalogService portssvc.CatalogSvcFacade
}

func newCatalogHandler(cs portssvc.CatalogSvcFacade) *catalogHandler {
	return &catalogHandler{catalogService: cs}
}

// RegisterCatalogRoutes registers the fee catalog administration routes.
func RegisterCatalogRoutes(rg *gin.RouterGroup, catalogService portssvc.CatalogSvcFacade) {
	h := newCatalogHandler(catalogService)

	categories := rg.Group("/fee-categories")
	{
		categories.POST("", h.createCategory)
		categories.GET("", h.listCategories)
	}

	structures := rg.Group("/fee-structures")
	{
		structures.POST("", h.createFeeStructure)
		structures.GET("", h.listFeeStructures)
		structures.GET("/:structureID", h.getFeeStructure)
		structures.PATCH("/:structureID", h.updateFeeStructure)
		structures.DELETE("/:structureID", h.deactivateFeeStructure)
	}

	specialFees := rg.Group("/special-fees")
	{
		specialFees.POST("", h.createSpecialFee)
		specialFees.GET("/:specialFeeID", h.getSpecialFee)
		specialFees.DELETE("/:specialFeeID", h.deactivateSpecialFee)
	}
}

// createCategory godoc
// @Summary Create a fee category
// @Tags catalog
// @Accept json
// @Produce json
// @Param category body dto.CreateFeeCategoryRequest true "Category details"
// @Success 201 {object} domain.FeeCategory
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Name already used"
// @Security BearerAuth
// @Router /fee-categories [post]
func (h *catalogHandler) createCategory(c *gin.Context) {
	var req dto.CreateFeeCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create fee category")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fee category created", slog.String("category_id", category.ID))
	c.JSON(http.StatusCreated, category)
}

func (h *catalogHandler) listCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list fee categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// createFeeStructure godoc
// @Summary Price a fee category for a section or grade in a term
// @Tags catalog
// @Accept json
// @Produce json
// @Param structure body dto.CreateFeeStructureRequest true "Structure details"
// @Success 201 {object} domain.FeeStructure
// @Failure 400 {object} map[string]string "Invalid input, due date outside the term, or duplicate active structure"
// @Failure 404 {object} map[string]string "Unknown year, term, level or category"
// @Security BearerAuth
// @Router /fee-structures [post]
func (h *catalogHandler) createFeeStructure(c *gin.Context) {
	var req dto.CreateFeeStructureRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	structure, err := h.catalogService.CreateFeeStructure(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create fee structure")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Fee structure created", slog.String("structure_id", structure.ID))
	c.JSON(http.StatusCreated, structure)
}

func (h *catalogHandler) listFeeStructures(c *gin.Context) {
	var params dto.ListFeeStructuresParams
	if !bindQuery(c, &params) {
		return
	}
	structures, err := h.catalogService.ListFeeStructures(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list fee structures")
		return
	}
	c.JSON(http.StatusOK, structures)
}

func (h *catalogHandler) getFeeStructure(c *gin.Context) {
	structure, err := h.catalogService.GetFeeStructure(c.Request.Context(), c.Param("structureID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve fee structure")
		return
	}
	c.JSON(http.StatusOK, structure)
}

// updateFeeStructure changes a structure for future invoices. Issued invoices keep their prices.
func (h *catalogHandler) updateFeeStructure(c *gin.Context) {
	var req dto.UpdateFeeStructureRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	structure, err := h.catalogService.UpdateFeeStructure(c.Request.Context(), c.Param("structureID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to update fee structure")
		return
	}
	c.JSON(http.StatusOK, structure)
}

func (h *catalogHandler) deactivateFeeStructure(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateFeeStructure(c.Request.Context(), c.Param("structureID"), actor); err != nil {
		respondError(c, err, "Failed to deactivate fee structure")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *catalogHandler) createSpecialFee(c *gin.Context) {
	var req dto.CreateSpecialFeeRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	fee, err := h.catalogService.CreateSpecialFee(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create special fee")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Special fee created", slog.String("special_fee_id", fee.ID))
	c.JSON(http.StatusCreated, fee)
}

func (h *catalogHandler) getSpecialFee(c *gin.Context) {
	fee, err := h.catalogService.GetSpecialFee(c.Request.Context(), c.Param("specialFeeID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve special fee")
		return
	}
	c.JSON(http.StatusOK, fee)
}

func (h *catalogHandler) deactivateSpecialFee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateSpecialFee(c.Request.Context(), c.Param("specialFeeID"), actor); err != nil {
		respondError(c, err, "Failed to deactivate special fee")
		return
	}
	c.Status(http.StatusNoContent)
}
