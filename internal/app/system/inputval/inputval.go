// Package inputval validates request structs using `validate` struct tags.
//
// Field names in messages come from the `label` tag when present, so a
// struct like
//
//	type input struct {
//		Title string `validate:"required,min=3,max=150" label:"Title"`
//	}
//
// fails with "Title must be at least 3 characters".
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
	})
	return v
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of a Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "" when there is none.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Validate checks s against its struct tags.
func Validate(s any) Result {
	err := get().Struct(s)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	out := Result{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return name + " must be a valid email address"
	}
	return fmt.Sprintf("%s is invalid", name)
}

// IsValidEmail reports whether s is a plain address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return get().Var(s, "email") == nil
}
