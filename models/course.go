// models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course publication states.
const (
	CourseStatusDraft  = "draft"
	CourseStatusActive = "active"
)

// Course model. Creator references the instructor's user document.
type Course struct {
	ID               primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	CourseTitle      string               `json:"courseTitle" bson:"courseTitle"`
	SubTitle         string               `json:"subTitle,omitempty" bson:"subTitle,omitempty"`
	Description      string               `json:"description,omitempty" bson:"description,omitempty"`
	Category         string               `json:"category" bson:"category"`
	CourseLevel      string               `json:"courseLevel" bson:"courseLevel"`
	CoursePrice      float64              `json:"coursePrice" bson:"coursePrice"`
	CourseThumbnail  string               `json:"courseThumbnail,omitempty" bson:"courseThumbnail,omitempty"`
	Creator          primitive.ObjectID   `json:"creator" bson:"creator"`
	IsPublished      bool                 `json:"isPublished" bson:"isPublished"`
	Status           string               `json:"status" bson:"status"`
	EnrolledStudents []primitive.ObjectID `json:"enrolledStudents,omitempty" bson:"enrolledStudents,omitempty"`
	Lectures         []Lecture            `json:"lectures" bson:"lectures"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" bson:"updatedAt"`
}

type Lecture struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	Order       int    `json:"order" bson:"order"`
}

// Purchase records a completed course enrollment.
type Purchase struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CourseID  primitive.ObjectID `json:"courseId" bson:"courseId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Amount    float64            `json:"amount" bson:"amount"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CourseProgress tracks which lectures a user has viewed for one course.
type CourseProgress struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	CourseID       primitive.ObjectID `json:"courseId" bson:"courseId"`
	Completed      bool               `json:"completed" bson:"completed"`
	ViewedLectures []int              `json:"viewedLectures" bson:"viewedLectures"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Request models

type CreateCourseRequest struct {
	CourseTitle string    `json:"courseTitle" validate:"required"`
	SubTitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category" validate:"required"`
	Level       string    `json:"level" validate:"required"`
	Price       float64   `json:"price,omitempty" validate:"gte=0"`
	Thumbnail   string    `json:"courseThumbnail,omitempty"`
	Lectures    []Lecture `json:"lectures,omitempty"`
}

type UpdateCourseRequest struct {
	CourseTitle string   `json:"courseTitle,omitempty"`
	SubTitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Level       string   `json:"level,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Thumbnail   string   `json:"courseThumbnail,omitempty"`
}

type PublishCourseRequest struct {
	Publish bool `json:"publish"`
}

type UpdateLecturesRequest struct {
	Lectures []Lecture `json:"lectures"`
}

type PurchaseCourseRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type LectureViewedRequest struct {
	LectureIndex int `json:"lectureIndex"`
}
