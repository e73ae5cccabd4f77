package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/skillstream/lms_backend/controllers"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/repositories"
)

// RegisterUserRoutes sets up the account lifecycle and user management routes.
func RegisterUserRoutes(e *echo.Echo, jwtSecret string,
	userController *controllers.UserController, users *repositories.UserRepository) {

	// Public account lifecycle routes
	public := e.Group("/api/v1/users")
	public.POST("/register", userController.Register)
	public.POST("/verify-phone", userController.VerifyPhone)
	public.POST("/verify-otp", userController.VerifyOTP)
	public.POST("/resend-otp", userController.ResendOTP)
	public.POST("/login", userController.Login)
	public.GET("/logout", userController.Logout)

	// Authenticated user routes
	protected := e.Group("/api/v1/users")
	protected.Use(middleware.JWTMiddleware(jwtSecret))
	protected.GET("/profile", userController.GetProfile)
	protected.PUT("/profile/update", userController.UpdateProfile)

	// Admin-only routes
	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.JWTMiddleware(jwtSecret))
	admin.Use(middleware.RequireRole(users, models.RoleAdmin))
	admin.GET("/users", userController.GetAllUsers)
	admin.GET("/database-stats", userController.GetDatabaseStats)
	admin.PUT("/user/role", userController.UpdateUserRole)
}
