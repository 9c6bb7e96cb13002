package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

// newRequestValidator reports field paths using JSON names so messages match the payload.
func newRequestValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// collectViolations runs struct validation and returns one readable line per failure.
func collectViolations(validate *validator.Validate, payload interface{}) []string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, describeFieldError(fe))
	}
	return violations
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isList {
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// duplicateWeekdays lists weekdays that appear more than once under field.
func duplicateWeekdays(field string, days []int) []string {
	seen := make(map[int]int, len(days))
	var violations []string
	for _, day := range days {
		seen[day]++
		if seen[day] == 2 {
			violations = append(violations, fmt.Sprintf("%s has duplicate dayOfWeek %d", field, day))
		}
	}
	return violations
}

func violationError(subject string, violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s: %s", subject, strings.Join(violations, "; ")))
}
