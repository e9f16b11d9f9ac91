// Package validator wraps go-playground/validator with the tags used by
// request and service level validation in this module.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/internal/slot"
)

// SlotTag validates that a string is a parsable slot descriptor.
const SlotTag = "slot"

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	v *validator.Validate
}

// New returns a validator reading the "validate" struct tag.
func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	Register(v)
	return &structValidator{v: v}
}

// Register installs the custom tags and JSON field naming on v. The gin
// binding engine is configured through the same function.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation(SlotTag, validSlot)
}

func validSlot(fl validator.FieldLevel) bool {
	_, ok := slot.ParseStart(fl.Field().String())
	return ok
}

// Validate returns a single error naming every failed field, or nil.
func (s *structValidator) Validate(obj interface{}) error {
	err := s.v.Struct(obj)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	return FieldErrors(errs)
}

// FieldErrors is a flat, readable rendering of validator.ValidationErrors.
type FieldErrors validator.ValidationErrors

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, Describe(e))
	}
	return strings.Join(parts, "; ")
}

// Describe renders one failed constraint.
func Describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", e.Field(), e.Param())
	case SlotTag:
		return fmt.Sprintf("%s is not a recognised time slot", e.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag())
	}
}
