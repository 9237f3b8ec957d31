package validation

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"eventpass-backend/models"
)

func validRegister() models.RegisterRequest {
	return models.RegisterRequest{
		FullName: "Asha Rao",
		Phone:    "9998887770",
		Email:    "a@x.com",
		City:     "Pune",
		State:    "Maharashtra",
	}
}

func TestValidateRegisterRequest(t *testing.T) {
	v := New()
	if err := v.Validate(context.Background(), validRegister()); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*models.RegisterRequest)
		field   string
		message string
	}{
		{"missing name", func(r *models.RegisterRequest) { r.FullName = "" }, "fullName", ErrFieldRequired},
		{"short name", func(r *models.RegisterRequest) { r.FullName = "A" }, "fullName", ErrFieldBelowMinLen},
		{"bad phone", func(r *models.RegisterRequest) { r.Phone = "12345" }, "phone", ErrInvalidPhone},
		{"bad email", func(r *models.RegisterRequest) { r.Email = "nope" }, "email", ErrInvalidEmail},
		{"long city", func(r *models.RegisterRequest) { r.City = strings.Repeat("c", 81) }, "city", ErrFieldExceedsMaxLen},
		{"bad photo", func(r *models.RegisterRequest) { r.Photo = "data:text/plain;base64,aGk=" }, "photo", ErrInvalidPhoto},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegister()
			tc.mutate(&req)
			err := v.Validate(context.Background(), req)
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if verr.Field != tc.field || verr.Message != tc.message {
				t.Fatalf("expected %s/%s, got %s/%s", tc.field, tc.message, verr.Field, verr.Message)
			}
		})
	}
}

func TestValidateCheckinRequest(t *testing.T) {
	v := New()
	ok := models.CheckinRequest{RegistrationID: "EP-1", Method: models.MethodManualLookup}
	if err := v.Validate(context.Background(), ok); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	bad := models.CheckinRequest{RegistrationID: "EP-1", Method: "teleport"}
	if err := v.Validate(context.Background(), bad); err == nil {
		t.Fatalf("expected unknown method to fail")
	}
	if err := v.Validate(context.Background(), models.CheckinRequest{}); err == nil {
		t.Fatalf("expected missing registration id to fail")
	}
}

func TestValidPhoto(t *testing.T) {
	small := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
	if !ValidPhoto(small) {
		t.Fatalf("expected small png to be accepted")
	}
	if ValidPhoto("data:image/png;base64,") {
		t.Fatalf("expected empty payload to be rejected")
	}
	if ValidPhoto("data:image/png;base64,@@@") {
		t.Fatalf("expected bad base64 to be rejected")
	}
	if ValidPhoto("data:image/gif;base64,R0lG") {
		t.Fatalf("expected gif to be rejected")
	}
	big := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(make([]byte, MaxPhotoBytes+1))
	if ValidPhoto(big) {
		t.Fatalf("expected oversize photo to be rejected")
	}
}
