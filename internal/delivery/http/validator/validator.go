// Package validator adapts go-playground/validator to echo's Validator
// interface so handlers can validate bound request bodies.
package validator

import (
	domainerrors "passport/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a validator instance with struct-tag rules.
type Validator struct {
	validate *validator.Validate
}

// New is the constructor for Validator.
func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator. Rule violations surface as a 400-class
// domain error carrying the validator's detail message.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
