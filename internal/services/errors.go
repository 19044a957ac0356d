package services

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned when a username/password pair cannot be
// verified. It deliberately carries no detail about which part failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned for missing, malformed, expired, or
// wrong-kind tokens, and for tokens whose subject no longer resolves to an
// active user.
var ErrInvalidToken = errors.New("invalid token")

// ValidationError reports a field constraint violation on input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsValidationError unwraps err into a ValidationError if possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
