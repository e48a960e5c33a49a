package validation

import (
	"github.com/Shivamsingh4838/bookswap/util/validate"
)

// Validator plugs the shared validator into echo.Context.Validate.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate implements echo.Validator. Failures come back as VALIDATION
// errors naming the first offending field.
func (v *Validator) Validate(i interface{}) error {
	return validate.Struct(i)
}
