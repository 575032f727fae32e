package validator

import (
	govalidator "github.com/go-playground/validator/v10"
)

// Validator checks request structs against their validate tags.
type Validator interface {
	Validate(interface{}) error
}

type validator struct {
	v *govalidator.Validate
}

func New() Validator {
	return &validator{v: govalidator.New()}
}

func (val *validator) Validate(obj interface{}) error {
	return val.v.Struct(obj)
}
