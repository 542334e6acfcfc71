// Package validation checks request and record structs against their
// validate tags and reports problems keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns nil when every field passes.
func Struct(s interface{}) map[string]string {
	return Fields(validate.Struct(s))
}

// Var validates a single value against tag, reporting problems under name.
func Var(name string, value interface{}, tag string) map[string]string {
	fields := Fields(validate.Var(value, tag))
	if fields == nil {
		return nil
	}
	// Var reports an empty field name.
	return map[string]string{name: fields[""]}
}

// Fields flattens validator errors into field messages. Errors of any other
// kind are reported under "_".
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if _, seen := fields[fieldErr.Field()]; seen {
			continue
		}
		fields[fieldErr.Field()] = message(fieldErr)
	}
	return fields
}

func message(fieldErr validator.FieldError) string {
	param := fieldErr.Param()
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be at most %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(param), ", ")
	case "gtefield":
		return "must not be before " + jsonName(param)
	case "unique":
		return "must not contain duplicates"
	}
	return "is invalid"
}

// jsonName lowercases the first letter of a Go field name.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
