package validation

import (
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventpass-backend/models"
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrInvalidEmail       = "Invalid email address"
	ErrInvalidPhone       = "Phone number must be 10 digits"
	ErrInvalidRegID       = "Invalid registration ID"
	ErrInvalidPhoto       = "Photo must be a JPEG, PNG or WEBP data URI under 5 MB"
	ErrInvalidChoice      = "Value is not one of the allowed options"
	ErrUnknownValidation  = "Unknown validation error"
)

// MaxPhotoBytes caps the decoded size of an uploaded profile photo.
const MaxPhotoBytes = 5 << 20

var photoPrefixes = []string{
	"data:image/jpeg;base64,",
	"data:image/jpg;base64,",
	"data:image/png;base64,",
	"data:image/webp;base64,",
}

// Error is a validation failure, reported to clients as 400.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Message + ": " + e.Field
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone10", validatePhone)
	_ = v.RegisterValidation("regid", validateRegistrationID)
	_ = v.RegisterValidation("photo", validatePhoto)
	return &Validator{v: v}
}

func (v *Validator) Validate(ctx context.Context, structure interface{}) error {
	return parseValidationErrors(v.v.StructCtx(ctx, structure))
}

func validatePhone(fl validator.FieldLevel) bool {
	return models.ValidPhone(fl.Field().String())
}

func validateRegistrationID(fl validator.FieldLevel) bool {
	return models.ValidRegistrationID(fl.Field().String())
}

func validatePhoto(fl validator.FieldLevel) bool {
	return ValidPhoto(fl.Field().String())
}

// ValidPhoto accepts image data URIs whose decoded payload is within
// MaxPhotoBytes.
func ValidPhoto(dataURI string) bool {
	for _, prefix := range photoPrefixes {
		if !strings.HasPrefix(dataURI, prefix) {
			continue
		}
		payload := dataURI[len(prefix):]
		if payload == "" || base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+2 {
			return false
		}
		decoded, err := base64.StdEncoding.DecodeString(payload)
		return err == nil && len(decoded) > 0 && len(decoded) <= MaxPhotoBytes
	}
	return false
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return &Error{Message: ErrInvalidFormat}
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required", "required_without":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "email":
		msg = ErrInvalidEmail
	case "phone10":
		msg = ErrInvalidPhone
	case "regid":
		msg = ErrInvalidRegID
	case "photo":
		msg = ErrInvalidPhoto
	case "oneof":
		msg = ErrInvalidChoice
	default:
		msg = ErrUnknownValidation
	}
	return &Error{Field: ve.Field(), Message: msg}
}
