package validator

import (
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateVar(value interface{}, rules string) error
}

type validator struct {
	v *validatorv10.Validate
}

func New() Validator {
	return &validator{v: validatorv10.New(validatorv10.WithRequiredStructEnabled())}
}

func (val *validator) Validate(obj interface{}) error {
	err := val.v.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("field %s failed on rule %q", first.Field(), first.Tag())
	}
	return err
}

func (val *validator) ValidateVar(value interface{}, rules string) error {
	return val.v.Var(value, rules)
}
