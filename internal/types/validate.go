package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the AnalyzeInput using the validator.
func (in *AnalyzeInput) Validate() error {
	return describe(validate.Struct(in))
}

// Validate validates the NormalizeInput using the validator.
func (in *NormalizeInput) Validate() error {
	return describe(validate.Struct(in))
}

// describe turns validator errors into one readable message per field
func describe(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}
