package validator

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"anoa.com/yamdb/pkg/apperror"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReservedUsername cannot be registered because /users/me is a route.
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidUsername reports whether a username passes the pattern and is not reserved.
func ValidUsername(username string) bool {
	return username != ReservedUsername && usernamePattern.MatchString(username)
}

// ValidSlug reports whether s is a URL slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Register adds the custom tags to gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidSlug(fl.Field().String())
	})
}

// Struct checks obj against its binding tags on gin's engine. Failures come
// back as *apperror.ValidationError.
func Struct(obj any) error {
	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}
	if fields, ok := FieldErrors(err); ok {
		return &apperror.ValidationError{Fields: fields}
	}
	return err
}

// FieldErrors converts binding errors into field -> message pairs.
// The second return is false when err is not a validation error.
func FieldErrors(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		name := getFieldName(fieldError.Field())
		if _, exists := fields[name]; !exists {
			fields[name] = getFieldErrorMessage(fieldError)
		}
	}
	return fields, true
}

func getFieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "username":
		return fmt.Sprintf("letters, digits and @/./+/-/_ only; %q is reserved", ReservedUsername)
	case "slug":
		return "letters, digits, hyphens and underscores only"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "is invalid"
	}
}

// getFieldName turns a struct field name into the JSON key clients send.
func getFieldName(field string) string {
	fieldNames := map[string]string{
		"ConfirmationCode": "confirmation_code",
		"FirstName":        "first_name",
		"LastName":         "last_name",
		"Genre":            "genre",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	if field == "" {
		return field
	}
	runes := []rune(field)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
