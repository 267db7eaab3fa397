// Package validation provides the shared request validator.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

var Module = fx.Module("validation",
	fx.Provide(New),
)

// New returns a validator that reports JSON field names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// FieldError is one failed constraint in caller terms.
type FieldError struct {
	Field string
	Code  string
}

// Fields flattens validator errors; ok is false when err is not a validation failure.
func Fields(err error) ([]FieldError, bool) {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil, false
	}
	out := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		out = append(out, FieldError{Field: field, Code: fe.Tag()})
	}
	return out, true
}
