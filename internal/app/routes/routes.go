package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icemlc/lcportal/internal/app/controllers"
	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	departmentController *controllers.DepartmentController,
	approvalController *controllers.ApprovalController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Health endpoint
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// --- Public catalog routes ---
	departments := v1.Group("/departments")
	{
		departments.GET("", departmentController.List)
		departments.GET("/:id", departmentController.GetByID)
	}

	// --- Public student portal routes ---
	// Students are not staff accounts; registration and the LC form run
	// without a JWT, matching the kiosk-style student portal.
	students := v1.Group("/students")
	{
		students.POST("", studentController.Register)
		students.POST("/:prn/form", studentController.SubmitForm)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", authController.GetProfile)
		authenticated.POST("/auth/logout", authController.Logout)

		// Department approval queue and the state machine entry point
		approvals := authenticated.Group("/approvals")
		{
			approvals.GET("", approvalController.ListForDepartment)
			approvals.GET("/:id", approvalController.GetByID)
			approvals.PATCH("/:id/status", approvalController.UpdateStatus)
		}

		// Staff views of a student
		authenticated.GET("/students/:prn", studentController.Get)
		authenticated.GET("/students/:prn/approvals", approvalController.ListForStudent)

		// Registrar-only certificate upload
		registrarProtected := authenticated.Group("")
		registrarProtected.Use(authMiddleware.RoleRequired(string(models.RoleRegistrar)))
		{
			registrarProtected.POST("/students/:prn/certificate", studentController.UploadCertificate)
		}

		// Admin-only catalog and account management
		adminProtected := authenticated.Group("")
		adminProtected.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
		{
			adminProtected.POST("/auth/register", authController.Register)
			adminProtected.POST("/departments", departmentController.Create)
		}
	}
}
