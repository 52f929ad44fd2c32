package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
)

var validate *validator.Validate

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("difficulty", validateDifficulty)
	validate.RegisterValidation("category", validateCategory)
}

func GetValidator() *validator.Validate {
	return validate
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func validateDifficulty(fl validator.FieldLevel) bool {
	_, err := gameplay.LookupTier(fl.Field().String())
	return err == nil
}

func validateCategory(fl validator.FieldLevel) bool {
	return gameplay.IsKnownCategory(fl.Field().String())
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param()
			case "uuid":
				message = fieldError.Field() + " must be a valid session id"
			case "username":
				message = "Username must be 3-30 characters of letters, numbers or underscores"
			case "difficulty":
				message = fieldError.Field() + " must be one of: " + strings.Join(gameplay.TierNames(), ", ")
			case "category":
				message = fieldError.Field() + " must be one of: " + strings.Join(gameplay.Categories(), ", ")
			case "nefield":
				message = fieldError.Field() + " must differ from " + fieldError.Param()
			case "unique":
				message = fieldError.Field() + " must not contain duplicates"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldPath(fieldError.Namespace()),
				Message: message,
			})
		}
	}

	return errors
}

// fieldPath drops the struct name from a validator namespace, so
// "StartGameRequest.categories[1]" becomes "categories[1]".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

type Validator interface {
	Validate() error
}

type ValidationError struct {
	Field   string `json:"field" example:"username"`
	Message string `json:"message" example:"username is required"`
}
