package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jedlsf/buwis-friend/internal/service"
)

// TaxHandler exposes the stateless tax computations.
type TaxHandler struct {
	taxSvc service.TaxService
}

// NewTaxHandler creates a new TaxHandler.
func NewTaxHandler(taxSvc service.TaxService) *TaxHandler {
	return &TaxHandler{taxSvc: taxSvc}
}

// Breakdown handles POST /api/v1/tax/breakdown
// @Summary      Compute an invoice tax breakdown
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        body body service.BreakdownInput true "Lines and tax settings"
// @Success      200 {object} APIResponse{data=tax.Breakdown}
// @Failure      400 {object} APIResponse
// @Failure      401 {object} APIResponse
// @Security     BearerAuth
// @Router       /tax/breakdown [post]
func (h *TaxHandler) Breakdown(c *gin.Context) {
	var req service.BreakdownInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	b, err := h.taxSvc.ComputeBreakdown(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, b)
}

// IncomeTax handles POST /api/v1/tax/income-tax
// @Summary      Compute income tax due
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        body body service.IncomeTaxInput true "Annual income and regime"
// @Success      200 {object} APIResponse{data=service.IncomeTaxResult}
// @Failure      400 {object} APIResponse
// @Security     BearerAuth
// @Router       /tax/income-tax [post]
func (h *TaxHandler) IncomeTax(c *gin.Context) {
	var req service.IncomeTaxInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	res, err := h.taxSvc.ComputeIncomeTax(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Deadlines handles GET /api/v1/tax/deadlines?year=&quarter=
// @Summary      Filing deadlines for a quarter
// @Tags         tax
// @Produce      json
// @Param        year query int true "Filing year"
// @Param        quarter query int true "Quarter (1-4)"
// @Success      200 {object} APIResponse{data=calendar.Deadlines}
// @Failure      400 {object} APIResponse
// @Security     BearerAuth
// @Router       /tax/deadlines [get]
func (h *TaxHandler) Deadlines(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "year must be an integer")
		return
	}
	quarter, err := strconv.Atoi(c.Query("quarter"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "quarter must be an integer")
		return
	}

	dl, err := h.taxSvc.Deadlines(c.Request.Context(), year, quarter)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, dl)
}
