// Package validate runs go-playground/validator rules and reports the first
// failing field as a VALIDATION error.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivamsingh4838/bookswap/util/apperr"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// name fields after their json key when they have one
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

func Struct(i interface{}) error {
	return translate(std.Struct(i), "")
}

// Var checks a single value against tag; name labels it in the message.
func Var(value interface{}, name, tag string) error {
	return translate(std.Var(value, tag), name)
}

func translate(err error, name string) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	field := fe.Field()
	if field == "" {
		field = name
	}
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field + " is required")
	case "email":
		return apperr.Validation("invalid email")
	case "min":
		return apperr.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "oneof":
		return apperr.Validation(fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return apperr.Validation("invalid " + field)
	}
}
