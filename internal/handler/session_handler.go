package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/service"
)

// SessionHandler handles filing session endpoints.
type SessionHandler struct {
	filingSvc service.FilingService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(filingSvc service.FilingService) *SessionHandler {
	return &SessionHandler{filingSvc: filingSvc}
}

// sessionListItem is the compact list representation of a session.
type sessionListItem struct {
	ID        uuid.UUID      `json:"id"`
	Summary   filing.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type addInvoicesRequest struct {
	Invoices []service.InvoiceInput `json:"invoices" binding:"required,min=1,dive"`
}

type publishRequest struct {
	Format string `json:"format"`
}

// Create handles POST /api/v1/sessions
// @Summary      Create a filing session
// @Description  Opens a quarterly filing session for the caller, optionally seeded with invoices
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body body service.CreateSessionInput true "Session to create"
// @Success      201 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      401 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Failure      422 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req service.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sess, err := h.filingSvc.CreateSession(c.Request.Context(), userID, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, sess)
}

// List handles GET /api/v1/sessions
// @Summary      List filing sessions
// @Description  Lists the caller's sessions, newest period first, as summaries without invoices
// @Tags         sessions
// @Produce      json
// @Param        offset query int false "Pagination offset" default(0)
// @Param        limit query int false "Pagination limit" default(20)
// @Success      200 {object} APIResponse{data=[]sessionListItem,meta=PagMeta}
// @Failure      401 {object} APIResponse
// @Failure      500 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	sessions, total, err := h.filingSvc.ListSessions(c.Request.Context(), userID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	items := make([]sessionListItem, 0, len(sessions))
	for _, s := range sessions {
		md := s.Metadata()
		items = append(items, sessionListItem{
			ID:        s.ID(),
			Summary:   s.Summary(),
			CreatedAt: md.CreatedAt,
			UpdatedAt: md.UpdatedAt,
		})
	}
	RespondPaginated(c, items, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/sessions/:id
// @Summary      Get a filing session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	sess, err := h.filingSvc.GetSession(c.Request.Context(), userID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// Delete handles DELETE /api/v1/sessions/:id
// @Summary      Delete a filing session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.filingSvc.DeleteSession(c.Request.Context(), userID, id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "session deleted"})
}

// Import handles POST /api/v1/sessions/import. The body is a stored session
// document exactly as returned by GET /sessions/:id.
// @Summary      Import a session document
// @Description  Stores the document under a fresh ID and reconciles its stored breakdowns against recomputed ones
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Success      201 {object} APIResponse{data=service.ImportResult}
// @Failure      400 {object} APIResponse
// @Failure      401 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/import [post]
func (h *SessionHandler) Import(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read request body")
		return
	}

	res, err := h.filingSvc.ImportSession(c.Request.Context(), userID, raw)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, res)
}

// UpdateTaxConfig handles PUT /api/v1/sessions/:id/tax-config
// @Summary      Update session tax configuration
// @Description  Changes rates or regime and recomputes every invoice and the summary
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        body body service.TaxConfigInput true "Fields to change"
// @Success      200 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/tax-config [put]
func (h *SessionHandler) UpdateTaxConfig(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req service.TaxConfigInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sess, err := h.filingSvc.UpdateTaxConfig(c.Request.Context(), userID, id, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// AddInvoices handles POST /api/v1/sessions/:id/invoices
// @Summary      Add invoices
// @Description  Adds a batch of invoices; the batch is rejected whole on any duplicate or out-of-period invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        body body addInvoicesRequest true "Invoices to add"
// @Success      200 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Failure      422 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/invoices [post]
func (h *SessionHandler) AddInvoices(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req addInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sess, err := h.filingSvc.AddInvoices(c.Request.Context(), userID, id, req.Invoices)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// ClearInvoices handles DELETE /api/v1/sessions/:id/invoices
// @Summary      Remove all invoices
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Session UUID"
// @Success      200 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/invoices [delete]
func (h *SessionHandler) ClearInvoices(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	sess, err := h.filingSvc.ClearInvoices(c.Request.Context(), userID, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// ReplaceInvoice handles PUT /api/v1/sessions/:id/invoices/:number
// @Summary      Replace an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        number path string true "Invoice number"
// @Param        body body service.InvoiceInput true "Replacement invoice"
// @Success      200 {object} APIResponse
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Failure      422 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/invoices/{number} [put]
func (h *SessionHandler) ReplaceInvoice(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req service.InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sess, err := h.filingSvc.ReplaceInvoice(c.Request.Context(), userID, id, c.Param("number"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// RemoveInvoice handles DELETE /api/v1/sessions/:id/invoices/:number
// @Summary      Remove an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        number path string true "Invoice number"
// @Success      200 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/invoices/{number} [delete]
func (h *SessionHandler) RemoveInvoice(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	sess, err := h.filingSvc.RemoveInvoice(c.Request.Context(), userID, id, c.Param("number"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, sess)
}

// Export handles GET /api/v1/sessions/:id/export?format=csv|xlsx
// @Summary      Download a session export
// @Tags         exports
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Session UUID"
// @Param        format query string false "csv or xlsx" default(csv)
// @Success      200 {file} file
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}
	format, err := domain.ParseExportFormat(strings.ToLower(c.DefaultQuery("format", string(domain.ExportCSV))))
	if err != nil {
		HandleError(c, err)
		return
	}

	res, err := h.filingSvc.Export(c.Request.Context(), userID, id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", res.ContentDisposition())
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// PublishReport handles POST /api/v1/sessions/:id/reports
// @Summary      Publish a report to object storage
// @Description  Uploads the export and returns a presigned download URL
// @Tags         exports
// @Accept       json
// @Produce      json
// @Param        id path string true "Session UUID"
// @Param        body body publishRequest false "Export format, xlsx by default"
// @Success      201 {object} APIResponse{data=service.PublishedReport}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      502 {object} APIResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/reports [post]
func (h *SessionHandler) PublishReport(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req publishRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}
	if req.Format == "" {
		req.Format = string(domain.ExportXLSX)
	}
	format, err := domain.ParseExportFormat(strings.ToLower(req.Format))
	if err != nil {
		HandleError(c, err)
		return
	}

	report, err := h.filingSvc.PublishReport(c.Request.Context(), userID, id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, report)
}
