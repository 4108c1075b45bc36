package session

import (
	"errors"
	"fmt"
)

var ErrMissingToken = errors.New("no access token found, log in first")

// AuthenticationError is returned when a step of the login chain fails,
// either because the expected form, link or field is missing or because the
// provider rejected the request.
type AuthenticationError struct {
	Step string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed at step %q: %v", e.Step, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
