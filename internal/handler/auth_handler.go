package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Bandi-Aditya/OfflineExam/internal/middleware"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
	"github.com/Bandi-Aditya/OfflineExam/internal/service"
	"github.com/Bandi-Aditya/OfflineExam/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	students    *repository.StudentRepository
	admins      *repository.AdminRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	students *repository.StudentRepository,
	admins *repository.AdminRepository,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		students:    students,
		admins:      admins,
	}
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Validates student code + password and returns a JWT.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.students.GetByCode(c.Request.Context(), req.StudentCode)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(student.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	h.issueStudentToken(c, student)
}

// SendOTP godoc
// POST /api/v1/auth/student/send-otp
// Issues a short-lived one-time password for the student.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req model.SendOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.students.GetByCode(c.Request.Context(), req.StudentCode)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	otp, err := h.authService.IssueOTP(c.Request.Context(), student.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Delivery happens out of band. The OTP is included here so lab
	// deployments without an SMS gateway keep working.
	response.Success(c, http.StatusOK, gin.H{"otp": otp})
}

// OTPLogin godoc
// POST /api/v1/auth/student/login-otp
// Validates student code + OTP and returns a JWT. OTPs are single use.
func (h *AuthHandler) OTPLogin(c *gin.Context) {
	var req model.OTPLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.students.GetByCode(c.Request.Context(), req.StudentCode)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.VerifyOTP(c.Request.Context(), student.ID, req.OTP); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidOTP)
		return
	}

	h.issueStudentToken(c, student)
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Validates admin email + password and returns a JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, err := h.admins.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(admin.ID, service.TokenTypeAdmin)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AdminLoginResponse{Token: token, Admin: *admin})
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.students.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetAdminProfile godoc
// GET /api/v1/auth/admin/me
// Returns the profile of the currently authenticated admin.
func (h *AuthHandler) GetAdminProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	admin, err := h.admins.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"admin": admin})
}

func (h *AuthHandler) issueStudentToken(c *gin.Context, student *model.Student) {
	token, err := h.authService.GenerateToken(student.ID, service.TokenTypeStudent)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	h.authService.RegisterLogin(c.Request.Context(), student.ID, token)

	response.Success(c, http.StatusOK, model.StudentLoginResponse{Token: token, Student: *student})
}
