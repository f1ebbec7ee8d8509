// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("requirement_tag", validateRequirementTag)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

var tagPattern = regexp.MustCompile("^[a-z0-9_]+$")

// Requirement tags are lowercase snake_case identifiers, 1-50 characters.
func validateRequirementTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	if len(tag) < 1 || len(tag) > 50 {
		return false
	}
	return tagPattern.MatchString(tag)
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	case "requirement_tag":
		return "Requirement tags must be lowercase snake_case identifiers"
	default:
		return e.Field() + " is invalid"
	}
}
