package helen

import (
	"errors"
	"fmt"
)

// ErrInvalidAPIResponse is returned when a calculation requires contract
// data and the API returned none.
var ErrInvalidAPIResponse = errors.New("invalid Helen API response")

// APIError is a non-successful response from the Oma Helen REST API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (%d) at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error (%d) at %s", e.StatusCode, e.Endpoint)
}
