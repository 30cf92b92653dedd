package config

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() { validate = validator.New() })
	return validate
}

// Validate checks cfg's `validate:"..."` struct tags, wrapping the
// first failure as a scerr so config errors surface through the same
// taxonomy as runtime ones.
func Validate(cfg any) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return scerr.New(scerr.ErrMissingField, "config: field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return scerr.New(scerr.ErrMissingField, "config: %v", err)
	}
	return nil
}
