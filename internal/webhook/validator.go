package webhook

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts validator/v10 to echo.Validator. Field names in errors
// use their json tag.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
