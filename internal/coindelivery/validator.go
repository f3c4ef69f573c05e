package coindelivery

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidAmount validates that the field is a decimal number.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := decimal.NewFromString(strings.TrimSpace(s))

	return err == nil
}
