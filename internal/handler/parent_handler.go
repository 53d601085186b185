package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
)

// ParentHandler handles parent management (CRUD).
type ParentHandler struct {
	parentService *service.ParentService
	log           zerolog.Logger
}

// NewParentHandler creates a new ParentHandler.
func NewParentHandler(parentService *service.ParentService, log zerolog.Logger) *ParentHandler {
	return &ParentHandler{
		parentService: parentService,
		log:           log.With().Str("component", "parent_handler").Logger(),
	}
}

// ListParents godoc
// GET /api/parents/
// Lists parents with their students, paged by skip/limit.
func (h *ParentHandler) ListParents(c *gin.Context) {
	params, ok := listParams(c)
	if !ok {
		return
	}

	parents, err := h.parentService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, parents, pagination(params, len(parents)))
}

// GetParent godoc
// GET /api/parents/:id
// Returns a parent with their students.
func (h *ParentHandler) GetParent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	parent, err := h.parentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, parent)
}

// CreateParent godoc
// POST /api/parents/
// Creates a new parent. Phone numbers are unique.
func (h *ParentHandler) CreateParent(c *gin.Context) {
	var req model.CreateParentRequest
	if !bindJSON(c, &req) {
		return
	}

	parent, err := h.parentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, parent)
}

// UpdateParent godoc
// PUT /api/parents/:id
// Updates the provided fields of a parent.
func (h *ParentHandler) UpdateParent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateParentRequest
	if !bindJSON(c, &req) {
		return
	}

	parent, err := h.parentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, parent)
}

// DeleteParent godoc
// DELETE /api/parents/:id
// Deletes a parent together with their students.
func (h *ParentHandler) DeleteParent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.parentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Parent deleted successfully"})
}
