// controllers/course_controller.go
package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/middleware"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/repositories"
	"github.com/skillstream/lms_backend/utils"
)

// CourseController handles instructor course management.
type CourseController struct {
	courses *repositories.CourseRepository
	logger  *log.Logger
}

func NewCourseController(courses *repositories.CourseRepository) *CourseController {
	return &CourseController{
		courses: courses,
		logger:  log.New(os.Stdout, "[COURSE] ", log.LstdFlags),
	}
}

func instructorID(c echo.Context) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(middleware.GetUserIDFromToken(c))
}

// newCourse builds a draft course from the create request, sanitizing free
// text and reindexing lecture order.
func newCourse(creator primitive.ObjectID, req models.CreateCourseRequest) *models.Course {
	lectures := req.Lectures
	if lectures == nil {
		lectures = []models.Lecture{}
	}
	for i := range lectures {
		lectures[i].Order = i
	}

	return &models.Course{
		CourseTitle:     utils.SanitizeInput(req.CourseTitle),
		SubTitle:        utils.SanitizeInput(req.SubTitle),
		Description:     utils.SanitizeInput(req.Description),
		Category:        utils.SanitizeInput(req.Category),
		CourseLevel:     utils.SanitizeInput(req.Level),
		CoursePrice:     req.Price,
		CourseThumbnail: utils.SanitizeInput(req.Thumbnail),
		Creator:         creator,
		IsPublished:     false,
		Status:          models.CourseStatusDraft,
		Lectures:        lectures,
	}
}

// courseUpdateSet collects the provided fields into a partial update document.
func courseUpdateSet(req models.UpdateCourseRequest) bson.M {
	set := bson.M{}
	if req.CourseTitle != "" {
		set["courseTitle"] = utils.SanitizeInput(req.CourseTitle)
	}
	if req.SubTitle != "" {
		set["subTitle"] = utils.SanitizeInput(req.SubTitle)
	}
	if req.Description != "" {
		set["description"] = utils.SanitizeInput(req.Description)
	}
	if req.Category != "" {
		set["category"] = utils.SanitizeInput(req.Category)
	}
	if req.Level != "" {
		set["courseLevel"] = utils.SanitizeInput(req.Level)
	}
	if req.Price != nil {
		set["coursePrice"] = *req.Price
	}
	if req.Thumbnail != "" {
		set["courseThumbnail"] = utils.SanitizeInput(req.Thumbnail)
	}
	return set
}

// CreateCourse creates a draft course owned by the instructor.
func (cc *CourseController) CreateCourse(c echo.Context) error {
	creator, err := instructorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	var req models.CreateCourseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	course := newCourse(creator, req)

	if err := cc.courses.Create(c.Request().Context(), course); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Course created successfully",
		Data:    map[string]interface{}{"course": course},
	})
}

// GetMyCourses lists the instructor's courses, newest first.
func (cc *CourseController) GetMyCourses(c echo.Context) error {
	creator, err := instructorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	courses, err := cc.courses.FindByCreator(c.Request().Context(), creator)
	if err != nil {
		return respondError(c, err)
	}
	if courses == nil {
		courses = []models.Course{}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Courses retrieved successfully",
		Data:    map[string]interface{}{"courses": courses},
	})
}

// GetCourse returns one of the instructor's courses.
func (cc *CourseController) GetCourse(c echo.Context) error {
	creator, err := instructorID(c)
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

	course, err := cc.courses.FindOwned(c.Request().Context(), courseID, creator)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course retrieved successfully",
		Data:    map[string]interface{}{"course": course},
	})
}

// UpdateCourse applies a partial update to an owned course.
func (cc *CourseController) UpdateCourse(c echo.Context) error {
	creator, err := instructorID(c)
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

	var req models.UpdateCourseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	set := courseUpdateSet(req)
	if len(set) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No changes provided for update",
		})
	}

	course, err := cc.courses.UpdateFields(c.Request().Context(), courseID, creator, set)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course updated successfully",
		Data:    map[string]interface{}{"course": course},
	})
}

// DeleteCourse removes an owned course.
func (cc *CourseController) DeleteCourse(c echo.Context) error {
	creator, err := instructorID(c)
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

	if err := cc.courses.Delete(c.Request().Context(), courseID, creator); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course deleted successfully",
	})
}

// PublishCourse toggles publication. A course needs at least one lecture
// before it can go live.
func (cc *CourseController) PublishCourse(c echo.Context) error {
	creator, err := instructorID(c)
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

	var req models.PublishCourseRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	course, err := cc.courses.FindOwned(ctx, courseID, creator)
	if err != nil {
		return respondError(c, err)
	}

	if req.Publish && len(course.Lectures) == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Please add at least one lecture before publishing the course",
		})
	}

	status := models.CourseStatusDraft
	if req.Publish {
		status = models.CourseStatusActive
	}

	course, err = cc.courses.UpdateFields(ctx, courseID, creator, bson.M{
		"isPublished": req.Publish,
		"status":      status,
	})
	if err != nil {
		return respondError(c, err)
	}

	message := "Course unpublished successfully"
	if req.Publish {
		message = "Course published successfully"
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    map[string]interface{}{"course": course},
	})
}

// UpdateLectures replaces the lecture list of an owned course.
func (cc *CourseController) UpdateLectures(c echo.Context) error {
	creator, err := instructorID(c)
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

	var req models.UpdateLecturesRequest
	if err := bindRequest(c, &req); err != nil {
		return respondError(c, err)
	}

	lectures := req.Lectures
	if lectures == nil {
		lectures = []models.Lecture{}
	}
	for i := range lectures {
		lectures[i].Order = i
	}

	course, err := cc.courses.UpdateFields(c.Request().Context(), courseID, creator, bson.M{
		"lectures": lectures,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Lectures updated successfully",
		Data:    map[string]interface{}{"course": course},
	})
}
