// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. New accounts always start as RoleUser.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
)

// IsValidRole reports whether role is one of the three enumerated values.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RoleInstructor
}

// User model. PhoneNumber is always stored in canonical +91 form, never the
// raw user-supplied string. Password holds the bcrypt digest and is excluded
// from JSON output.
type User struct {
	ID              primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string               `json:"name" bson:"name"`
	PhoneNumber     string               `json:"phone_number" bson:"phone_number"`
	Email           string               `json:"email,omitempty" bson:"email,omitempty"`
	Password        string               `json:"-" bson:"password"`
	Role            string               `json:"role" bson:"role"`
	IsVerified      bool                 `json:"isVerified" bson:"isVerified"`
	OTP             *OTPInfo             `json:"-" bson:"otp,omitempty"`
	PhotoURL        string               `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	EnrolledCourses []primitive.ObjectID `json:"enrolledCourses,omitempty" bson:"enrolledCourses,omitempty"`
	LastLogin       time.Time            `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// OTPInfo is the pending verification code. Either the whole record is
// present with both fields set, or the field is absent from the document.
type OTPInfo struct {
	Code      string    `json:"code" bson:"code"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// UserSummary is the account shape returned to callers. It never carries the
// password digest or the OTP record.
type UserSummary struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Phone      string             `json:"phone"`
	Email      string             `json:"email,omitempty"`
	Role       string             `json:"role"`
	IsVerified bool               `json:"isVerified"`
}

// Summary strips the user down to its response shape.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Phone:      u.PhoneNumber,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

// Request models

type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Email       string `json:"email,omitempty"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

type ResendOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type UpdateRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// Response is the JSON envelope every handler returns.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DatabaseStats is the admin-facing storage overview.
type DatabaseStats struct {
	TotalUsers      int64            `json:"totalUsers"`
	UsersByRole     map[string]int64 `json:"usersByRole"`
	VerifiedUsers   int64            `json:"verifiedUsers"`
	UnverifiedUsers int64            `json:"unverifiedUsers"`
	DBConnected     bool             `json:"dbConnected"`
}
