// Package apperr defines the closed error taxonomy for the API. Handlers
// branch on Kind rather than on message text, and every kind maps to exactly
// one HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindMissingField       Kind = "MISSING_FIELD"
	KindWeakPassword       Kind = "WEAK_PASSWORD"
	KindInvalidEmail       Kind = "INVALID_EMAIL"
	KindInvalidPhoneFormat Kind = "INVALID_PHONE_FORMAT"
	KindDuplicateAccount   Kind = "DUPLICATE_ACCOUNT"
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyVerified    Kind = "ALREADY_VERIFIED"
	KindNoPendingOTP       Kind = "NO_PENDING_OTP"
	KindOTPExpired         Kind = "OTP_EXPIRED"
	KindInvalidOTP         Kind = "INVALID_OTP"
	KindTooManyAttempts    Kind = "TOO_MANY_ATTEMPTS"
	KindInvalidCredential  Kind = "INVALID_CREDENTIAL"
	KindDeliveryFailed     Kind = "DELIVERY_FAILED"
	KindConfiguration      Kind = "CONFIGURATION_ERROR"
	KindStorage            Kind = "STORAGE_UNAVAILABLE"
)

// Error carries a machine-readable kind, an optional offending field name
// (duplicate-key and missing-field cases), and a human-readable message.
// Password hashes, raw OTP codes and wrapped causes never reach the message.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// MissingField reports a required field that was absent from the request.
func MissingField(field string) *Error {
	return &Error{
		Kind:    KindMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// Duplicate reports a uniqueness violation on the named field.
func Duplicate(field string) *Error {
	name := "phone number"
	if field == "email" {
		name = "email"
	}
	return &Error{
		Kind:    KindDuplicateAccount,
		Field:   field,
		Message: fmt.Sprintf("A user with this %s already exists", name),
	}
}

// Storage wraps a collaborator failure that has no more specific kind.
func Storage(cause error) *Error {
	return &Error{
		Kind:    KindStorage,
		Message: "Storage temporarily unavailable. Please try again later",
		cause:   cause,
	}
}

// KindOf returns the taxonomy kind of err, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldOf returns the offending field name, if the error carries one.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// HTTPStatus maps an error to its response status code. Untyped errors are
// treated as internal failures.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMissingField, KindWeakPassword, KindInvalidEmail, KindInvalidPhoneFormat,
		KindAlreadyVerified, KindNoPendingOTP, KindOTPExpired, KindInvalidOTP:
		return http.StatusBadRequest
	case KindDuplicateAccount:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredential:
		return http.StatusUnauthorized
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	case KindStorage:
		return http.StatusServiceUnavailable
	case KindDeliveryFailed, KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible message for err. Untyped errors collapse
// to a generic message so internals never leak into responses.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong. Please try again later"
}
