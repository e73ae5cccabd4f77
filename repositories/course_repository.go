// repositories/course_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
)

// CourseRepository persists courses, purchases and progress records.
type CourseRepository struct {
	courses   *mongo.Collection
	purchases *mongo.Collection
	progress  *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{
		courses:   db.Collection("courses"),
		purchases: db.Collection("purchases"),
		progress:  db.Collection("courseProgress"),
	}
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	if _, err := r.courses.InsertOne(ctx, course); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// FindByCreator returns the instructor's courses, newest first.
func (r *CourseRepository) FindByCreator(ctx context.Context, creator primitive.ObjectID) ([]models.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.courses.Find(ctx, bson.M{"creator": creator},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, apperr.Storage(err)
	}
	return courses, nil
}

// FindOwned returns a single course only when it belongs to creator.
func (r *CourseRepository) FindOwned(ctx context.Context, id, creator primitive.ObjectID) (*models.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var course models.Course
	err := r.courses.FindOne(ctx, bson.M{"_id": id, "creator": creator}).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "Course not found")
		}
		return nil, apperr.Storage(err)
	}
	return &course, nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var course models.Course
	err := r.courses.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "Course not found")
		}
		return nil, apperr.Storage(err)
	}
	return &course, nil
}

// UpdateFields applies a partial update scoped to the owning instructor.
func (r *CourseRepository) UpdateFields(ctx context.Context, id, creator primitive.ObjectID, set bson.M) (*models.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set["updatedAt"] = time.Now()

	var course models.Course
	err := r.courses.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "creator": creator},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "Course not found")
		}
		return nil, apperr.Storage(err)
	}
	return &course, nil
}

func (r *CourseRepository) Delete(ctx context.Context, id, creator primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.courses.DeleteOne(ctx, bson.M{"_id": id, "creator": creator})
	if err != nil {
		return apperr.Storage(err)
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.KindNotFound, "Course not found")
	}
	return nil
}

// AddEnrolledStudent records the purchasing user on the course document.
func (r *CourseRepository) AddEnrolledStudent(ctx context.Context, courseID, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.courses.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{
			"$addToSet": bson.M{"enrolledStudents": userID},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *CourseRepository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if purchase.ID.IsZero() {
		purchase.ID = primitive.NewObjectID()
	}
	purchase.CreatedAt = time.Now()

	if _, err := r.purchases.InsertOne(ctx, purchase); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *CourseRepository) FindPurchase(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var purchase models.Purchase
	err := r.purchases.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}).Decode(&purchase)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "Purchase not found")
		}
		return nil, apperr.Storage(err)
	}
	return &purchase, nil
}

func (r *CourseRepository) FindPurchasesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.purchases.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer cursor.Close(ctx)

	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, apperr.Storage(err)
	}
	return purchases, nil
}

func (r *CourseRepository) FindProgress(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var progress models.CourseProgress
	err := r.progress.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}).Decode(&progress)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "No progress recorded for this course")
		}
		return nil, apperr.Storage(err)
	}
	return &progress, nil
}

// MarkLectureViewed upserts the progress record and adds the lecture index.
func (r *CourseRepository) MarkLectureViewed(ctx context.Context, userID, courseID primitive.ObjectID, lectureIndex int) (*models.CourseProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var progress models.CourseProgress
	err := r.progress.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "courseId": courseID},
		bson.M{
			"$addToSet":    bson.M{"viewedLectures": lectureIndex},
			"$set":         bson.M{"updatedAt": time.Now()},
			"$setOnInsert": bson.M{"userId": userID, "courseId": courseID, "completed": false},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&progress)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &progress, nil
}

// MarkCompleted upserts the progress record as completed.
func (r *CourseRepository) MarkCompleted(ctx context.Context, userID, courseID primitive.ObjectID, completed bool) (*models.CourseProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var progress models.CourseProgress
	err := r.progress.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "courseId": courseID},
		bson.M{
			"$set":         bson.M{"completed": completed, "updatedAt": time.Now()},
			"$setOnInsert": bson.M{"userId": userID, "courseId": courseID},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&progress)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &progress, nil
}
