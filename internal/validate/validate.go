// Package validate wraps go-playground/validator with the SpeakOut form rules
// and turns the first failing rule into an apperror.ValidationFailed.
//
// Custom tags:
//
//	nik          exactly 16 ASCII digits (Indonesian national ID)
//	simpleemail  local@domain.tld with no whitespace, the same loose check
//	             the registration form has always used
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/speakout/internal/apperror"
)

var (
	nikPattern   = regexp.MustCompile(`^[0-9]{16}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validator checks tagged structs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered. Field names in
// errors are the json tag names, so they match what clients send.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag name, which cannot happen here.
	_ = v.RegisterValidation("nik", func(fl validator.FieldLevel) bool {
		return nikPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})

	return &Validator{v: v}
}

// IsEmail reports whether s passes the simpleemail rule.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// RequiredMessager is implemented by forms whose missing-field message
// differs from the default "Please fill in all required fields!".
type RequiredMessager interface {
	RequiredMessage() string
}

// Struct validates s and returns nil or an *apperror.AppError describing the
// first failing field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if rm, ok := s.(RequiredMessager); ok && fe.Tag() == "required" {
			return apperror.ValidationFailed(fe.Field(), rm.RequiredMessage())
		}
		return apperror.ValidationFailed(fe.Field(), fieldError(fe))
	}
	return fmt.Errorf("validate: %w", err)
}

// fieldError converts a single FieldError into the message shown to the user.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Please fill in all required fields!"
	case "nik":
		return "NIK must be exactly 16 digits!"
	case "simpleemail":
		return "Please enter a valid email address!"
	case "min":
		switch field {
		case "password":
			return fmt.Sprintf("Password must be at least %s characters long!", fe.Param())
		case "title":
			return fmt.Sprintf("Report title must be at least %s characters!", fe.Param())
		case "description":
			return fmt.Sprintf("Description must be at least %s characters!", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
