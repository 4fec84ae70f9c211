package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bandi-Aditya/OfflineExam/internal/middleware"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
	"github.com/Bandi-Aditya/OfflineExam/internal/service"
	"github.com/Bandi-Aditya/OfflineExam/internal/validator"
)

// StudentExamHandler handles the student-facing exam protocol: assigned
// list, package download, start, submit and result.
type StudentExamHandler struct {
	attempts    *service.AttemptService
	assignments *repository.AssignmentRepository
}

// NewStudentExamHandler creates a new StudentExamHandler.
func NewStudentExamHandler(attempts *service.AttemptService, assignments *repository.AssignmentRepository) *StudentExamHandler {
	return &StudentExamHandler{attempts: attempts, assignments: assignments}
}

// ListAssigned godoc
// GET /api/v1/student/exams
// Lists the sessions the student is assigned to, with attempt state.
func (h *StudentExamHandler) ListAssigned(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assigned, err := h.assignments.ListAssignedExams(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": assigned})
}

// Download godoc
// GET /api/v1/student/exams/:session_id/download
// Issues the encrypted exam package and a fresh session token.
func (h *StudentExamHandler) Download(c *gin.Context) {
	claims, sessionID, ok := h.identify(c)
	if !ok {
		return
	}

	pkg, err := h.attempts.Download(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, pkg)
}

// Start godoc
// POST /api/v1/student/exams/:session_id/start
// Marks the attempt as in progress. Requires the current session token.
func (h *StudentExamHandler) Start(c *gin.Context) {
	claims, sessionID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignmentID, startTime, err := h.attempts.Start(c.Request.Context(), sessionID, claims.UserID, req.SessionToken)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.StartResponse{
		AssignmentID: assignmentID,
		StartTime:    startTime.UTC().Format(time.RFC3339),
	})
}

// Submit godoc
// POST /api/v1/student/exams/:session_id/submit
// Grades and records the attempt. First delivery with the current token
// wins; duplicates are rejected without touching the recorded score.
func (h *StudentExamHandler) Submit(c *gin.Context) {
	claims, sessionID, ok := h.identify(c)
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attempts.Submit(c.Request.Context(), sessionID, claims.UserID, req)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Result godoc
// GET /api/v1/student/exams/:session_id/result
// Returns the submitted attempt's result. Per-question detail is withheld
// until the session's end time has passed.
func (h *StudentExamHandler) Result(c *gin.Context) {
	claims, sessionID, ok := h.identify(c)
	if !ok {
		return
	}

	result, err := h.attempts.Result(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *StudentExamHandler) identify(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

func (h *StudentExamHandler) failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssigned)
	case errors.Is(err, service.ErrSessionInactive):
		response.Fail(c, http.StatusForbidden, response.ErrSessionInactive)
	case errors.Is(err, service.ErrInvalidToken):
		response.Fail(c, http.StatusForbidden, response.ErrTokenMismatch)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusForbidden, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrResultNotReady):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotReady)
	case errors.Is(err, service.ErrExamEmpty):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
