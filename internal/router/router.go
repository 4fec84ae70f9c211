package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Bandi-Aditya/OfflineExam/internal/config"
	"github.com/Bandi-Aditya/OfflineExam/internal/handler"
	"github.com/Bandi-Aditya/OfflineExam/internal/middleware"
	"github.com/Bandi-Aditya/OfflineExam/internal/response"
	"github.com/Bandi-Aditya/OfflineExam/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	StudentExam *handler.StudentExamHandler
	Exam        *handler.ExamHandler
	Session     *handler.SessionHandler
	StudentMgmt *handler.StudentManagementHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP). OTP
	// issue and verify sit behind this.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/student/send-otp", handlers.Auth.SendOTP)
		auth.POST("/student/login-otp", handlers.Auth.OTPLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/exams", handlers.StudentExam.ListAssigned)
		studentAPI.GET("/exams/:session_id/download", handlers.StudentExam.Download)
		studentAPI.POST("/exams/:session_id/start", handlers.StudentExam.Start)
		studentAPI.POST("/exams/:session_id/submit", handlers.StudentExam.Submit)
		studentAPI.GET("/exams/:session_id/result", handlers.StudentExam.Result)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam and question management
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.Update)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Exam.AddQuestion)
		adminAPI.PUT("/exams/:exam_id/questions/:question_id", handlers.Exam.UpdateQuestion)
		adminAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Exam.DeleteQuestion)

		// Session scheduling and monitoring
		adminAPI.GET("/sessions", handlers.Session.List)
		adminAPI.POST("/sessions", handlers.Session.Create)
		adminAPI.GET("/sessions/:session_id", handlers.Session.Get)
		adminAPI.PUT("/sessions/:session_id", handlers.Session.Update)
		adminAPI.PATCH("/sessions/:session_id/active", handlers.Session.Toggle)
		adminAPI.DELETE("/sessions/:session_id", handlers.Session.Delete)
		adminAPI.GET("/sessions/:session_id/live-status", handlers.Session.LiveStatus)
		adminAPI.GET("/sessions/:session_id/results", handlers.Session.Results)
		adminAPI.POST("/sessions/:session_id/students/:student_id/stop", handlers.Session.StopAttempt)

		// Student management
		adminAPI.GET("/students", handlers.StudentMgmt.List)
		adminAPI.POST("/students", handlers.StudentMgmt.Create)
		adminAPI.GET("/students/:student_id", handlers.StudentMgmt.Get)
		adminAPI.PUT("/students/:student_id", handlers.StudentMgmt.Update)
		adminAPI.DELETE("/students/:student_id", handlers.StudentMgmt.Delete)
		adminAPI.GET("/students/:student_id/history", handlers.StudentMgmt.History)
	}

	return router
}
