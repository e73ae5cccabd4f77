// controllers/user_controller.go
package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/config"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/repositories"
	"github.com/skillstream/lms_backend/services"
	"github.com/skillstream/lms_backend/utils"
)

// UserController handles registration, verification, login and profile routes.
type UserController struct {
	cfg      *config.Config
	db       *mongo.Database
	accounts *services.AccountService
	users    *repositories.UserRepository
	redis    *redis.Client
	logger   *log.Logger
}

func NewUserController(cfg *config.Config, db *mongo.Database,
	accounts *services.AccountService, users *repositories.UserRepository,
	redisClient *redis.Client) *UserController {
	return &UserController{
		cfg:      cfg,
		db:       db,
		accounts: accounts,
		users:    users,
		redis:    redisClient,
		logger:   log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

// bindRequest decodes the JSON body and runs the DTO's validation tags
// through Echo's validator. Failures surface as taxonomy errors so responses
// keep the standard envelope; field names come from the json tags.
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.New(apperr.KindMissingField, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Tag() == "required" {
				return apperr.MissingField(fe.Field())
			}
			return apperr.Newf(apperr.KindMissingField, "%s is invalid", fe.Field())
		}
		return apperr.New(apperr.KindMissingField, "Invalid request body")
	}
	return nil
}

// respondError translates a taxonomy error into the JSON envelope. Untyped
// errors collapse to a generic 500 so internals never leak.
func respondError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	resp := models.Response{
		Status:  status,
		Message: apperr.Message(err),
	}
	if field := apperr.FieldOf(err); field != "" && apperr.KindOf(err) == apperr.KindDuplicateAccount {
		resp.Data = map[string]interface{}{"field": field}
	}
	return c.JSON(status, resp)
}

func (uc *UserController) setSessionCookie(c echo.Context, token string, maxAge time.Duration, sameSite http.SameSite) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   uc.cfg.Env == "production",
		SameSite: sameSite,
	})
}

// Register creates a new unverified account and sends the verification code.
func (uc *UserController) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := uc.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	uc.setSessionCookie(c, result.Token, middleware.SessionTokenTTL, http.SameSiteStrictMode)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Registration successful. Please verify your phone number.",
		Data:    map[string]interface{}{"user": result.User},
	})
}

// VerifyPhone confirms the OTP without issuing a fresh token.
func (uc *UserController) VerifyPhone(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := uc.checkOTPAttempts(c, req.UserID); err != nil {
		return respondError(c, err)
	}

	if err := uc.accounts.VerifyPhone(c.Request().Context(), req.UserID, req.OTP); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Phone verified successfully",
	})
}

// VerifyOTP confirms the code and issues the 30-day post-verification token.
func (uc *UserController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := uc.checkOTPAttempts(c, req.UserID); err != nil {
		return respondError(c, err)
	}

	result, err := uc.accounts.VerifyOTP(c.Request().Context(), req.UserID, req.OTP)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Account verified successfully.",
		Data: map[string]interface{}{
			"token": result.Token,
			"user":  result.User,
		},
	})
}

func (uc *UserController) checkOTPAttempts(c echo.Context, userID string) error {
	if userID == "" {
		return nil // the service reports the missing field
	}
	return utils.ValidateOTPAttempts(c.Request().Context(), userID, uc.redis)
}

// ResendOTP issues and delivers a fresh code, superseding the previous one.
func (uc *UserController) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	expiresAt, err := uc.accounts.ResendOTP(c.Request().Context(), req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Verification code sent successfully.",
		Data:    map[string]interface{}{"expiresAt": expiresAt},
	})
}

// Login authenticates by phone or email and sets the session cookie.
func (uc *UserController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := uc.accounts.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	// Lax rather than strict so logins initiated from external course links
	// keep their session.
	uc.setSessionCookie(c, result.Token, middleware.SessionTokenTTL, http.SameSiteLaxMode)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    map[string]interface{}{"user": result.User},
	})
}

// Logout expires the client-held cookie. There is no server-side session to
// revoke.
func (uc *UserController) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   uc.cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully.",
	})
}

// GetProfile returns the authenticated user's account.
func (uc *UserController) GetProfile(c echo.Context) error {
	userID := middleware.GetUserIDFromToken(c)

	user, err := uc.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	user.Password = ""
	user.OTP = nil

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile loaded",
		Data:    map[string]interface{}{"user": user},
	})
}

// UpdateProfile changes the display name and/or stores a new profile photo.
func (uc *UserController) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserIDFromToken(c)
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	name := utils.SanitizeInput(c.FormValue("name"))

	var photoURL string
	if file, err := c.FormFile("profilePhoto"); err == nil && file != nil {
		photoURL, err = uc.saveProfilePhoto(file.Filename, c)
		if err != nil {
			uc.logger.Printf("failed to store profile photo: %v", err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to store profile photo",
			})
		}
	}

	if name == "" && photoURL == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No changes provided for update",
		})
	}

	user, err := uc.users.UpdateProfile(c.Request().Context(), objID, name, photoURL)
	if err != nil {
		return respondError(c, err)
	}
	user.Password = ""
	user.OTP = nil

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated successfully.",
		Data:    map[string]interface{}{"user": user},
	})
}

func (uc *UserController) saveProfilePhoto(filename string, c echo.Context) (string, error) {
	file, err := c.FormFile("profilePhoto")
	if err != nil {
		return "", err
	}

	uploadDir := filepath.Join("uploads", "profiles")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", err
	}

	dstName := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(filename))
	dstPath := filepath.Join(uploadDir, dstName)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return "", err
	}

	return "/" + filepath.ToSlash(dstPath), nil
}

// GetAllUsers lists every account, most recently active first. Admin only.
func (uc *UserController) GetAllUsers(c echo.Context) error {
	users, err := uc.users.FindAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    map[string]interface{}{"users": users, "count": len(users)},
	})
}

// GetDatabaseStats reports user counts and storage connectivity. Admin only.
func (uc *UserController) GetDatabaseStats(c echo.Context) error {
	ctx := c.Request().Context()

	total, err := uc.users.CountDocuments(ctx, nil)
	if err != nil {
		return respondError(c, err)
	}
	verified, err := uc.users.CountDocuments(ctx, bson.M{"isVerified": true})
	if err != nil {
		return respondError(c, err)
	}
	byRole, err := uc.users.CountByRole(ctx)
	if err != nil {
		return respondError(c, err)
	}

	stats := models.DatabaseStats{
		TotalUsers:      total,
		UsersByRole:     byRole,
		VerifiedUsers:   verified,
		UnverifiedUsers: total - verified,
		DBConnected:     uc.db.Client().Ping(ctx, nil) == nil,
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Database statistics",
		Data:    stats,
	})
}

// UpdateUserRole changes an account's role. Admin only.
func (uc *UserController) UpdateUserRole(c echo.Context) error {
	var req models.UpdateRoleRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	if !models.IsValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid role - must be USER, ADMIN, or INSTRUCTOR",
		})
	}

	objID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return respondError(c, apperr.New(apperr.KindNotFound, "User not found"))
	}

	if err := uc.users.UpdateRole(c.Request().Context(), objID, req.Role); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("User role updated to %s successfully", req.Role),
	})
}
