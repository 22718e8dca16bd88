package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized marks a rejected session. Callers must treat it as a
// forced re-login, never as a retryable failure.
var ErrUnauthorized = errors.New("session expired")

// APIError is a non-auth rejection from a collaborator endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err comes from a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// apiError converts a non-2xx response into a typed error.
func apiError(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.String())
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body(), &body)
	msg := body.Message
	if msg == "" {
		msg = resp.String()
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}
