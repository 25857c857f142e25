package money

import "github.com/go-playground/validator/v10"

// RegisterValidators wires the codec's text validators into a validator
// instance under the tags `decimalcomma` and `intstring`. Empty fields pass,
// mirroring how a half-filled form must not flag cleared inputs.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("decimalcomma", func(fl validator.FieldLevel) bool {
		return ValidateDecimal(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("intstring", func(fl validator.FieldLevel) bool {
		return ValidateInteger(fl.Field().String())
	})
}
