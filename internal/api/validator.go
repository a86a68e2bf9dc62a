package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return fmt.Errorf("%w: %v", constants.ErrValidation, err)
	}
	return nil
}
