package validators

import (
	"reflect"
	"strings"

	"slotbook/cmd/internal/utils"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports json field names and knows the
// custom tags used by request structs.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	_ = validate.RegisterValidation("iso8601", IsIso8601)
	_ = validate.RegisterValidation("nospaces", NoWhiteSpaces)
	return validate
}

// IsIso8601 accepts every layout the slot normalizer can parse.
func IsIso8601(fl validator.FieldLevel) bool {
	_, err := utils.ParseDate(fl.Field().String())
	return err == nil
}

func NoWhiteSpaces(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
