package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillstream/lms_backend/models"
)

func TestNewCourseBuildsDraft(t *testing.T) {
	creator := primitive.NewObjectID()
	req := models.CreateCourseRequest{
		CourseTitle: "  Go Basics  ",
		Category:    "programming",
		Level:       "beginner",
		Price:       499,
		Thumbnail:   "https://cdn.example.com/go-basics.png",
		Lectures: []models.Lecture{
			{Title: "Intro", Order: 9},
			{Title: "Setup", Order: 3},
		},
	}

	course := newCourse(creator, req)

	assert.Equal(t, "Go Basics", course.CourseTitle)
	assert.Equal(t, creator, course.Creator)
	assert.Equal(t, 499.0, course.CoursePrice)
	assert.Equal(t, "https://cdn.example.com/go-basics.png", course.CourseThumbnail)
	assert.False(t, course.IsPublished)
	assert.Equal(t, models.CourseStatusDraft, course.Status)

	// Lecture order always follows list position, whatever the client sent.
	require.Len(t, course.Lectures, 2)
	assert.Equal(t, 0, course.Lectures[0].Order)
	assert.Equal(t, 1, course.Lectures[1].Order)
}

func TestNewCourseWithoutLectures(t *testing.T) {
	course := newCourse(primitive.NewObjectID(), models.CreateCourseRequest{
		CourseTitle: "Go Basics",
		Category:    "programming",
		Level:       "beginner",
	})

	require.NotNil(t, course.Lectures)
	assert.Empty(t, course.Lectures)
}

func TestCourseUpdateSet(t *testing.T) {
	price := 299.0
	set := courseUpdateSet(models.UpdateCourseRequest{
		CourseTitle: "Advanced Go",
		Price:       &price,
		Thumbnail:   "https://cdn.example.com/advanced-go.png",
	})

	assert.Equal(t, "Advanced Go", set["courseTitle"])
	assert.Equal(t, 299.0, set["coursePrice"])
	assert.Equal(t, "https://cdn.example.com/advanced-go.png", set["courseThumbnail"])
	assert.NotContains(t, set, "category")
	assert.NotContains(t, set, "description")
}

func TestCourseUpdateSetEmptyRequest(t *testing.T) {
	assert.Empty(t, courseUpdateSet(models.UpdateCourseRequest{}))
}

func TestCourseUpdateSetZeroPrice(t *testing.T) {
	price := 0.0
	set := courseUpdateSet(models.UpdateCourseRequest{Price: &price})
	assert.Equal(t, 0.0, set["coursePrice"])
}
