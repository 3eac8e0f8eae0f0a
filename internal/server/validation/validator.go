// Package validation validates request payloads with go-playground/validator
// and turns failures into a 422 apperr.Error carrying one entry per field.
//
// Field names in errors are the json names of the struct fields. Messages
// are looked up by "<field>.<tag>", then by tag, then fall back to a generic
// text.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// MsgValidationFailed is the top-level message of every validation error.
const MsgValidationFailed = "Validation failed"

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// now is replaced in tests.
	now = time.Now
)

// GetValidator returns the singleton validator with the custom rules
// registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		mustRegister(v, "username", validUsername)
		mustRegister(v, "strongpassword", strongPassword)
		mustRegister(v, "isodate", isoDate)
		mustRegister(v, "notpast", notPast)

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func validUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// strongPassword requires an upper case letter, a lower case letter and a
// digit.
func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

// notPast accepts today and later. Unparseable input passes so that isodate
// reports it.
func notPast(fl validator.FieldLevel) bool {
	d, err := models.ParseDate(fl.Field().String())
	if err != nil {
		return true
	}
	return !d.Before(models.NewDate(now()))
}

// Struct validates s. It returns nil or a 422 *apperr.Error.
func Struct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(MsgValidationFailed, []apperr.FieldError{{Field: "unknown", Message: err.Error()}})
	}

	fields := make([]apperr.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: Message(fe.Field(), fe.Tag(), fe.Param()),
			Value:   fieldValue(fe),
		})
	}
	return apperr.Validation(MsgValidationFailed, fields)
}

// fieldValue echoes the rejected value, never for password fields.
func fieldValue(fe validator.FieldError) any {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return nil
	}
	v := fe.Value()
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
