package controllers

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
)

type echoValidator struct {
	validator *validator.Validate
}

func (ev *echoValidator) Validate(i interface{}) error {
	return ev.validator.Struct(i)
}

// newJSONContext builds an Echo context carrying body, with the validator
// configured the same way the server configures it.
func newJSONContext(body string) echo.Context {
	e := echo.New()
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	e.Validator = &echoValidator{validator: v}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindRequestValidBody(t *testing.T) {
	c := newJSONContext(`{"name":"Asha","phone_number":"9876543210","password":"Abc@1234"}`)

	var req models.RegisterRequest
	require.NoError(t, bindRequest(c, &req))
	assert.Equal(t, "Asha", req.Name)
	assert.Equal(t, "9876543210", req.PhoneNumber)
}

func TestBindRequestMissingRequiredField(t *testing.T) {
	c := newJSONContext(`{"phone_number":"9876543210","password":"Abc@1234"}`)

	var req models.RegisterRequest
	err := bindRequest(c, &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
	assert.Equal(t, "name", apperr.FieldOf(err))
}

func TestBindRequestReportsJSONFieldNames(t *testing.T) {
	c := newJSONContext(`{"name":"Asha","password":"Abc@1234"}`)

	var req models.RegisterRequest
	err := bindRequest(c, &req)
	require.Error(t, err)
	assert.Equal(t, "phone_number", apperr.FieldOf(err))
}

func TestBindRequestCourseRequiredFields(t *testing.T) {
	c := newJSONContext(`{"courseTitle":"Go Basics"}`)

	var req models.CreateCourseRequest
	err := bindRequest(c, &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
	assert.Equal(t, "category", apperr.FieldOf(err))
}

func TestBindRequestNegativePrice(t *testing.T) {
	c := newJSONContext(`{"courseTitle":"Go Basics","category":"programming","level":"beginner","price":-10}`)

	var req models.CreateCourseRequest
	err := bindRequest(c, &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "price")
}

func TestBindRequestMalformedBody(t *testing.T) {
	c := newJSONContext(`{"name":`)

	var req models.RegisterRequest
	err := bindRequest(c, &req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
	assert.Equal(t, "Invalid request body", apperr.Message(err))
}
