// Package validation wraps go-playground/validator with a shared instance and
// human-readable, field-specific messages.
//
// Request structs declare rules with `validate` tags and an optional `label`
// tag used in messages:
//
//	type createPetitionReq struct {
//	    MovieTitle string `validate:"required,max=255" label:"Movie title"`
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/movie-catalog/internal/region"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes the first rule a request violated.
type FieldError struct {
	Field   string // json name of the field
	Tag     string // failing rule
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
			return region.Valid(region.Code(fl.Field().String()))
		})
	})
	return validate
}

// ValidateStruct checks s and returns a *FieldError for the first failing
// field, in declaration order.
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{
		Field:   fe.Field(),
		Tag:     fe.Tag(),
		Message: message(s, fe),
	}
}

func message(s any, fe validator.FieldError) string {
	label := fe.Field()
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if l := f.Tag.Get("label"); l != "" {
				label = l
			}
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "region":
		return fmt.Sprintf("%s must be a valid region code.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
