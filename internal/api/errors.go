package api

import (
	"errors"
	"fmt"
)

// Error is a non-success answer from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
	// Body holds the raw response when it was not a JSON envelope.
	Body string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	case e.Body != "":
		return fmt.Sprintf("api error %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("api error %d", e.Status)
	}
}

// ServerMessage is the message the backend meant for the user.
func (e *Error) ServerMessage() string { return e.Message }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// MessageOf returns the server-provided message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
