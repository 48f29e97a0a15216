package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance, same as the teacher's
// pkg/validation does for its NodeRequest/EdgeRequest checks.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Struct runs go-playground/validator's struct-tag validation against s
// and formats the first failure into a plain error. pkg/config.Config
// uses this for its tag-driven field checks (range/oneof/required_if),
// then layers a handful of additional manual checks on top for the
// cross-field invariants struct tags can't express (matching the
// teacher's own ValidateNodeRequest/ValidateEdgeRequest shape: struct-tag
// validation first, explicit follow-up checks after).
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required", "required_if", "required_unless":
			return fmt.Errorf("%s: field is required", field)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "ltfield":
			return fmt.Errorf("%s: must be less than field %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
