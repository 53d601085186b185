package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
)

// ClassHandler handles class management and seat registration.
type ClassHandler struct {
	classService        *service.ClassService
	registrationService *service.RegistrationService
	log                 zerolog.Logger
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService, registrationService *service.RegistrationService, log zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		classService:        classService,
		registrationService: registrationService,
		log:                 log.With().Str("component", "class_handler").Logger(),
	}
}

// ListClasses godoc
// GET /api/classes/
// Lists classes with their live seat counts, paged by skip/limit.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	params, ok := listParams(c)
	if !ok {
		return
	}

	classes, err := h.classService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, classes, pagination(params, len(classes)))
}

// GetSchedule godoc
// GET /api/classes/schedule
// Returns the weekly grid of display slots and the classes touching each cell.
func (h *ClassHandler) GetSchedule(c *gin.Context) {
	grid, err := h.classService.Schedule(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, grid)
}

// GetClass godoc
// GET /api/classes/:id
// Returns a class by ID.
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, class)
}

// CreateClass godoc
// POST /api/classes/
// Creates a new class. max_students defaults to 30.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.CreateClassRequest
	if !bindJSON(c, &req) {
		return
	}

	class, err := h.classService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, class)
}

// UpdateClass godoc
// PUT /api/classes/:id
// Updates the provided fields of a class.
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClassRequest
	if !bindJSON(c, &req) {
		return
	}

	class, err := h.classService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, class)
}

// DeleteClass godoc
// DELETE /api/classes/:id
// Deletes a class and its registrations.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Class deleted successfully"})
}

// RegisterStudent godoc
// POST /api/classes/:id/register
// Seats a student in the class.
func (h *ClassHandler) RegisterStudent(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.registrationService.Register(c.Request.Context(), classID, req.StudentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":      "Student registered successfully",
		"registration": reg,
	})
}

// UnregisterStudent godoc
// DELETE /api/classes/:id/unregister/:student_id
// Frees a student's seat in the class.
func (h *ClassHandler) UnregisterStudent(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}

	if err := h.registrationService.Unregister(c.Request.Context(), classID, studentID); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Student unregistered successfully"})
}

// ListClassStudents godoc
// GET /api/classes/:id/students
// Lists the students registered to the class.
func (h *ClassHandler) ListClassStudents(c *gin.Context) {
	classID, ok := pathID(c, "id")
	if !ok {
		return
	}

	students, err := h.registrationService.Students(c.Request.Context(), classID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, students)
}
