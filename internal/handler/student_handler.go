package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/service"
)

// StudentHandler handles student management (CRUD).
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/students/
// Lists students, paged by skip/limit.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	params, ok := listParams(c)
	if !ok {
		return
	}

	students, err := h.studentService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, students, pagination(params, len(students)))
}

// GetStudent godoc
// GET /api/students/:id
// Returns a student with the parent's name.
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// CreateStudent godoc
// POST /api/students/
// Creates a new student under an existing parent.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// UpdateStudent godoc
// PUT /api/students/:id
// Updates the provided fields of a student.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// DeleteStudent godoc
// DELETE /api/students/:id
// Deletes a student with their registrations and subscriptions.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// ListStudentClasses godoc
// GET /api/students/:id/classes
// Lists the classes a student is registered in.
func (h *StudentHandler) ListStudentClasses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	classes, err := h.studentService.Classes(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, classes)
}
