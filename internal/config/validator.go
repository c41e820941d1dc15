package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// NewValidator registers shift_time, which accepts 24h HH:MM values.
func NewValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("shift_time", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) != len("15:04") {
			return false
		}
		_, err := time.Parse("15:04", value)
		return err == nil
	})

	return validate
}
