package model

import (
	"fmt"
	"regexp"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

// PhonePattern is the accepted phone format: 10 digits starting with 0.
var PhonePattern = regexp.MustCompile(`^0\d{9}$`)

var validate = govalidator.New()

// ValidationError reports a malformed or missing field that passed request
// binding but violates a domain rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "%s is required", field)
	}
	return nil
}

func validEmail(email string) bool {
	return validate.Var(email, "email") == nil
}
