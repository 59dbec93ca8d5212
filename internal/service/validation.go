package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ascvd-risk-server/internal/domain"
)

// inputValidate checks input records against the ranges of the intake form.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so errors match request payloads
	inputValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateProfile checks that every patient field falls within its intake range
func ValidateProfile(profile domain.PatientProfile) error {
	return validateStruct(profile)
}

// ValidateMarkers checks that auxiliary markers fall within their intake range
func ValidateMarkers(markers domain.AuxiliaryMarkers) error {
	return validateStruct(markers)
}

// ValidateInputs validates both records and merges their field errors
func ValidateInputs(profile domain.PatientProfile, markers domain.AuxiliaryMarkers) error {
	var all domain.ValidationErrors
	for _, err := range []error{ValidateProfile(profile), ValidateMarkers(markers)} {
		if err == nil {
			continue
		}
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			all = append(all, verrs...)
			continue
		}
		return err
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

func validateStruct(v interface{}) error {
	err := inputValidate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating input: %w", err)
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.NewValidationError(fe.Field(), describeRule(fe), fe.Value()))
	}
	return out
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
