// repositories/user_repository.go
package repositories

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
)

const queryTimeout = 10 * time.Second

// UserRepository is the user directory over MongoDB. Uniqueness of phone and
// email is enforced by the indexes created at startup; duplicate-key errors
// surface as DuplicateAccount with the offending field name.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"phone_number": phone})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, apperr.Storage(err)
	}
	return &user, nil
}

// Create inserts a new user document. The caller must have set the canonical
// phone number and hashed password.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate(duplicateField(err))
		}
		return apperr.Storage(err)
	}
	return nil
}

// ReplaceOTP overwrites the pending OTP record, superseding any prior code.
func (r *UserRepository) ReplaceOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPInfo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"otp": otp, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apperr.Storage(err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	return nil
}

// MarkVerified flips the account to verified and clears the OTP record, but
// only when the given code is still the pending one. Concurrent resends race
// at the storage layer; conditioning on the exact code means a superseded
// code can never verify the account.
func (r *UserRepository) MarkVerified(ctx context.Context, id primitive.ObjectID, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isVerified": false, "otp.code": code},
		bson.M{
			"$set":   bson.M{"isVerified": true, "updatedAt": time.Now()},
			"$unset": bson.M{"otp": ""},
		},
	)
	if err != nil {
		return false, apperr.Storage(err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLogin": now, "updatedAt": now}},
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// UpdateProfile sets the provided fields; empty values are left untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, photoURL string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if name != "" {
		set["name"] = name
	}
	if photoURL != "" {
		set["photoUrl"] = photoURL
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, apperr.Storage(err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apperr.Storage(err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	return nil
}

// AddEnrolledCourse appends a course reference to the user's enrollments.
func (r *UserRepository) AddEnrolledCourse(ctx context.Context, userID, courseID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"enrolledCourses": courseID},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// FindAll returns all users sorted by last login, newest first.
func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "lastLogin", Value: -1}}))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Storage(err)
	}
	for i := range users {
		users[i].Password = ""
		users[i].OTP = nil
	}
	return users, nil
}

func (r *UserRepository) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return count, nil
}

// CountByRole groups users by role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, apperr.Storage(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// RoleOf implements middleware.RoleLookup.
func (r *UserRepository) RoleOf(ctx context.Context, userID string) (string, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// duplicateField extracts the colliding field name from a Mongo duplicate-key
// error. The index names carry the field names.
func duplicateField(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "email") {
		return "email"
	}
	return "phone_number"
}
