package validator

import (
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance to avoid creating multiple instances
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report JSON field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank rejects strings that are empty after trimming whitespace
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// maxrunes limits a string to N characters counted as code points
	_ = validate.RegisterValidation("maxrunes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(fl.Field().String()) <= limit
	})
}

// Get returns the shared validator instance
func Get() *validator.Validate {
	return validate
}

// FirstError returns the field and tag of the first validation failure in err
func FirstError(err error) (field, tag string, ok bool) {
	verrs, isVerrs := err.(validator.ValidationErrors)
	if !isVerrs || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Field(), verrs[0].Tag(), true
}

// Describe turns the first validation failure in err into a field name and a user-facing message
func Describe(err error) (field, message string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "", "is invalid"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		message = "is required"
	case "max", "maxrunes":
		message = "must be at most " + fe.Param() + " characters"
	case "min":
		message = "must be at least " + fe.Param() + " characters"
	case "url":
		message = "must be a valid URL"
	default:
		message = "is invalid"
	}

	return fe.Field(), message
}
