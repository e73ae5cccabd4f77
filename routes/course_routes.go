package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/skillstream/lms_backend/controllers"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/repositories"
)

// RegisterCourseRoutes sets up instructor course management plus the student
// purchase and progress routes.
func RegisterCourseRoutes(e *echo.Echo, jwtSecret string,
	courseController *controllers.CourseController,
	purchaseController *controllers.PurchaseController,
	users *repositories.UserRepository) {

	// Instructor course management
	courses := e.Group("/api/v1/courses")
	courses.Use(middleware.JWTMiddleware(jwtSecret))
	courses.Use(middleware.RequireRole(users, models.RoleInstructor, models.RoleAdmin))
	courses.POST("", courseController.CreateCourse)
	courses.GET("", courseController.GetMyCourses)
	courses.GET("/:courseId", courseController.GetCourse)
	courses.PUT("/:courseId", courseController.UpdateCourse)
	courses.DELETE("/:courseId", courseController.DeleteCourse)
	courses.PUT("/:courseId/publish", courseController.PublishCourse)
	courses.PUT("/:courseId/lectures", courseController.UpdateLectures)

	// Student purchases
	purchases := e.Group("/api/v1/purchases")
	purchases.Use(middleware.JWTMiddleware(jwtSecret))
	purchases.POST("", purchaseController.PurchaseCourse)
	purchases.GET("", purchaseController.GetMyPurchases)

	// Course progress
	progress := e.Group("/api/v1/progress")
	progress.Use(middleware.JWTMiddleware(jwtSecret))
	progress.GET("/:courseId", purchaseController.GetProgress)
	progress.POST("/:courseId/lecture-viewed", purchaseController.MarkLectureViewed)
	progress.POST("/:courseId/complete", purchaseController.MarkCourseComplete)
}
