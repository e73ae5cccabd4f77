// controllers/purchase_controller.go
package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/repositories"
)

// PurchaseController handles course purchases and progress tracking.
type PurchaseController struct {
	courses *repositories.CourseRepository
	users   *repositories.UserRepository
	logger  *log.Logger
}

func NewPurchaseController(courses *repositories.CourseRepository,
	users *repositories.UserRepository) *PurchaseController {
	return &PurchaseController{
		courses: courses,
		users:   users,
		logger:  log.New(os.Stdout, "[PURCHASE] ", log.LstdFlags),
	}
}

func authedUserID(c echo.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(middleware.GetUserIDFromToken(c))
}

// PurchaseCourse enrolls the user in a published course. The purchase record
// is the source of truth; the enrollment references on both documents are
// denormalized lookups.
func (pc *PurchaseController) PurchaseCourse(c echo.Context) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	var req models.PurchaseCourseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return respondError(c, apperr.New(apperr.KindNotFound, "Course not found"))
	}

	ctx := c.Request().Context()
	course, err := pc.courses.FindByID(ctx, courseID)
	if err != nil {
		return respondError(c, err)
	}
	if !course.IsPublished {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Course is not available for purchase",
		})
	}

	if _, err := pc.courses.FindPurchase(ctx, userID, courseID); err == nil {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Course already purchased",
		})
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return respondError(c, err)
	}

	purchase := &models.Purchase{
		CourseID: courseID,
		UserID:   userID,
		Amount:   course.CoursePrice,
		Status:   "completed",
	}
	if err := pc.courses.CreatePurchase(ctx, purchase); err != nil {
		return respondError(c, err)
	}

	// Enrollment references are best-effort denormalization; the purchase
	// document already committed.
	if err := pc.courses.AddEnrolledStudent(ctx, courseID, userID); err != nil {
		pc.logger.Printf("failed to record enrolled student: %v", err)
	}
	if err := pc.users.AddEnrolledCourse(ctx, userID, courseID); err != nil {
		pc.logger.Printf("failed to record enrolled course: %v", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Course purchased successfully",
		Data:    map[string]interface{}{"purchase": purchase},
	})
}

// GetMyPurchases lists the user's purchases, newest first.
func (pc *PurchaseController) GetMyPurchases(c echo.Context) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	purchases, err := pc.courses.FindPurchasesByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Purchases retrieved successfully",
		Data:    map[string]interface{}{"purchases": purchases},
	})
}

// GetProgress returns the user's progress for one course.
func (pc *PurchaseController) GetProgress(c echo.Context) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	courseID, err := primitive.ObjectIDFromHex(c.Param("courseId"))
	if err != nil {
		return respondError(c, apperr.New(apperr.KindNotFound, "Course not found"))
	}

	progress, err := pc.courses.FindProgress(c.Request().Context(), userID, courseID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Progress retrieved successfully",
		Data:    map[string]interface{}{"progress": progress},
	})
}

// MarkLectureViewed records a viewed lecture for a purchased course.
func (pc *PurchaseController) MarkLectureViewed(c echo.Context) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	courseID, err := primitive.ObjectIDFromHex(c.Param("courseId"))
	if err != nil {
		return respondError(c, apperr.New(apperr.KindNotFound, "Course not found"))
	}

	var req models.LectureViewedRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.LectureIndex < 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Lecture index must not be negative",
		})
	}

	ctx := c.Request().Context()
	if _, err := pc.courses.FindPurchase(ctx, userID, courseID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Purchase the course to track progress",
			})
		}
		return respondError(c, err)
	}

	progress, err := pc.courses.MarkLectureViewed(ctx, userID, courseID, req.LectureIndex)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Progress updated",
		Data:    map[string]interface{}{"progress": progress},
	})
}

// MarkCourseComplete flags the whole course as completed.
func (pc *PurchaseController) MarkCourseComplete(c echo.Context) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	courseID, err := primitive.ObjectIDFromHex(c.Param("courseId"))
	if err != nil {
		return respondError(c, apperr.New(apperr.KindNotFound, "Course not found"))
	}

	ctx := c.Request().Context()
	if _, err := pc.courses.FindPurchase(ctx, userID, courseID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Purchase the course to track progress",
			})
		}
		return respondError(c, err)
	}

	progress, err := pc.courses.MarkCompleted(ctx, userID, courseID, true)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course marked as completed",
		Data:    map[string]interface{}{"progress": progress},
	})
}
