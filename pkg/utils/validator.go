package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rivo/uniseg"
)

// MaxEmojiLength bounds a reaction emoji in characters (code points), matching
// the reactions.emoji column width.
const MaxEmojiLength = 20

// ErrorResponse represents the structure of the validation error response.
type ErrorResponse struct {
	Errors []CError `json:"errors"`
}

// CError represents a single validation error.
type CError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Validator is a struct that holds the validator instance from the go-playground/validator package
type Validator struct {
	validator *validator.Validate
}

// NewValidator is a function that returns a new instance of the Validator struct
func NewValidator() *Validator {
	v := validator.New()

	CustomValidation(v)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: v}
}

// Validate is a method that validates the input struct and returns a map of errors
// The map is formatted as JSON-friendly output for client-side consumption.
func (v *Validator) Validate(str interface{}) *ErrorResponse {
	err := v.validator.Struct(str)
	if err == nil {
		return nil
	}
	response := ErrorResponse{Errors: make([]CError, 0, len(err.(validator.ValidationErrors)))}
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validationErrors {
			field := err.Field()
			tag := err.Tag()
			message := getErrorMessage(field, tag, err.Param())
			response.Errors = append(response.Errors, CError{Field: field, Msg: message})
		}
	}
	return &response
}

// getErrorMessage is a helper function that returns the error message based on the field and tag
func getErrorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, param)
	case "eqfield":
		return fmt.Sprintf("%s must be equal to %s", field, param)
	case "slug":
		return fmt.Sprintf("%s must contain only lowercase letters, numbers, and hyphens, and cannot start or end with a hyphen", field)
	case "emoji_grapheme":
		return fmt.Sprintf("%s must be a single emoji of at most %d characters", field, MaxEmojiLength)
	default:
		return fmt.Sprintf("something wrong on %s; %s", field, tag)
	}
}

// ValidEmoji reports whether s is acceptable as a reaction emoji: non-empty,
// valid UTF-8, at most MaxEmojiLength code points, and exactly one grapheme
// cluster (multi-codepoint sequences such as skin tones and ZWJ families are
// single clusters).
func ValidEmoji(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	if utf8.RuneCountInString(s) > MaxEmojiLength {
		return false
	}
	return uniseg.GraphemeClusterCount(s) == 1
}

func CustomValidation(v *validator.Validate) {
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		slug := fl.Field().String()
		regExp := `^[a-z0-9]+(?:-[a-z0-9]+)*$`
		validate := regexp.MustCompile(regExp).MatchString(slug)
		return validate
	})
	v.RegisterValidation("emoji_grapheme", func(fl validator.FieldLevel) bool {
		return ValidEmoji(fl.Field().String())
	})
}
