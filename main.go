package main

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/skillstream/lms_backend/config"
	"github.com/skillstream/lms_backend/controllers"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/repositories"
	"github.com/skillstream/lms_backend/routes"
	"github.com/skillstream/lms_backend/services"
	"github.com/skillstream/lms_backend/utils"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg := config.Load()

	redisClient := config.ConnectRedis(cfg)

	client := config.ConnectDB(cfg)
	db := client.Database(cfg.DBName)

	e := echo.New()

	customValidator := &CustomValidator{validator: validator.New()}
	// Report json field names in validation errors rather than Go field names.
	customValidator.validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	e.Validator = customValidator

	rateLimiter := middleware.NewRateLimiter()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "SkillStream Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	courseRepo := repositories.NewCourseRepository(db)

	// Services
	notifier := utils.NewNotifier(cfg)
	tokenIssuer := &middleware.TokenIssuer{Secret: cfg.JWTSecret}
	accountService := services.NewAccountService(userRepo, notifier,
		services.BcryptHasher{}, tokenIssuer, cfg.OTPTTL)

	// Controllers
	userController := controllers.NewUserController(cfg, db, accountService, userRepo, redisClient)
	courseController := controllers.NewCourseController(courseRepo)
	purchaseController := controllers.NewPurchaseController(courseRepo, userRepo)

	routes.RegisterUserRoutes(e, cfg.JWTSecret, userController, userRepo)
	routes.RegisterCourseRoutes(e, cfg.JWTSecret, courseController, purchaseController, userRepo)

	// Ensure uploads directory exists
	os.MkdirAll("uploads", 0755)
	os.MkdirAll("uploads/profiles", 0755)

	e.Static("/uploads", "uploads")

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
