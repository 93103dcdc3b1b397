package identity

import "github.com/go-playground/validator/v10"

// RegisterValidations adds the "mobile" tag to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
}
