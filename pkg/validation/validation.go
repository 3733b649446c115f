package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// New returns a validator with the "sessionid" tag registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sessionid", func(fl validator.FieldLevel) bool {
		return ValidSessionID(fl.Field().String())
	})
	return v
}
