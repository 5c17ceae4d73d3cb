package backend

import (
	"errors"
	"fmt"
)

// ErrUnreachable means no response was received at all.
var ErrUnreachable = errors.New("cannot reach server")

// APIError is a failure reported by the backend: a non-2xx status or an
// explicit {"ok": false} body.
type APIError struct {
	Status  int
	Message string
	Raw     string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, env envelope, raw string, fallback string) *APIError {
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error %d", status)
	}
	return &APIError{Status: status, Message: msg, Raw: raw}
}
