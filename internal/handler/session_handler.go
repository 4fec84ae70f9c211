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

// SessionHandler handles admin session scheduling, monitoring and results.
type SessionHandler struct {
	sessions *service.SessionService
	monitor  *service.MonitorService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, monitor *service.MonitorService) *SessionHandler {
	return &SessionHandler{sessions: sessions, monitor: monitor}
}

// List godoc
// GET /api/v1/admin/sessions
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// Get godoc
// GET /api/v1/admin/sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Create godoc
// POST /api/v1/admin/sessions
// Schedules a session and assigns students. An empty student_ids list
// assigns every registered student.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Update godoc
// PUT /api/v1/admin/sessions/:session_id
func (h *SessionHandler) Update(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	var req model.UpdateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), sessionID, req)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Toggle godoc
// PATCH /api/v1/admin/sessions/:session_id/active
// Activates or deactivates package handout for the session.
func (h *SessionHandler) Toggle(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	var req model.ToggleSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessions.SetActive(c.Request.Context(), sessionID, *req.IsActive); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"is_active": *req.IsActive})
}

// Delete godoc
// DELETE /api/v1/admin/sessions/:session_id
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// LiveStatus godoc
// GET /api/v1/admin/sessions/:session_id/live-status
// Returns the polled monitoring snapshot for the proctor dashboard.
func (h *SessionHandler) LiveStatus(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	snapshot, err := h.monitor.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// Results godoc
// GET /api/v1/admin/sessions/:session_id/results
func (h *SessionHandler) Results(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	results, err := h.sessions.Results(c.Request.Context(), sessionID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// StopAttempt godoc
// POST /api/v1/admin/sessions/:session_id/students/:student_id/stop
// Force-submits one student's running attempt.
func (h *SessionHandler) StopAttempt(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessions.StopAttempt(c.Request.Context(), sessionID, studentID); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoStudents):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrBadSchedule):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
