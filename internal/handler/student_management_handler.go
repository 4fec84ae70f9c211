package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
	"github.com/Bandi-Aditya/OfflineExam/internal/service"
	"github.com/Bandi-Aditya/OfflineExam/internal/validator"
)

// StudentManagementHandler handles admin student account management and
// the per-student attempt history view.
type StudentManagementHandler struct {
	students *service.StudentService
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(students *service.StudentService) *StudentManagementHandler {
	return &StudentManagementHandler{students: students}
}

// List godoc
// GET /api/v1/admin/students
func (h *StudentManagementHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// Get godoc
// GET /api/v1/admin/students/:student_id
func (h *StudentManagementHandler) Get(c *gin.Context) {
	studentID, ok := parseIntParam(c, "student_id")
	if !ok {
		return
	}

	student, err := h.students.Get(c.Request.Context(), studentID)
	if err != nil {
		failStudent(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Create godoc
// POST /api/v1/admin/students
func (h *StudentManagementHandler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		failStudent(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// Update godoc
// PUT /api/v1/admin/students/:student_id
func (h *StudentManagementHandler) Update(c *gin.Context) {
	studentID, ok := parseIntParam(c, "student_id")
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.students.Update(c.Request.Context(), studentID, req)
	if err != nil {
		failStudent(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Delete godoc
// DELETE /api/v1/admin/students/:student_id
func (h *StudentManagementHandler) Delete(c *gin.Context) {
	studentID, ok := parseIntParam(c, "student_id")
	if !ok {
		return
	}

	if err := h.students.Delete(c.Request.Context(), studentID); err != nil {
		failStudent(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// History godoc
// GET /api/v1/admin/students/:student_id/history
// Lists every session the student was assigned to, current attempt plus
// archived retake snapshots.
func (h *StudentManagementHandler) History(c *gin.Context) {
	studentID, ok := parseIntParam(c, "student_id")
	if !ok {
		return
	}

	history, err := h.students.History(c.Request.Context(), studentID)
	if err != nil {
		failStudent(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}

func parseIntParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func failStudent(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
