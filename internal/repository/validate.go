package repository

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// rule maps a struct field to the message reported when any of its tags fail.
type rule struct {
	field   string
	message string
}

// checkStruct validates s and reports the first failing field in the order
// given by rules. Fields not listed in rules are ignored.
func checkStruct(s any, rules []rule) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}
	for _, r := range rules {
		if failed[r.field] {
			return invalid(r.field, r.message)
		}
	}
	return nil
}
