package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrStepInvalid       = errors.New("step is incomplete")
	ErrOptionUnavailable = errors.New("option is not available")
	ErrDateDisabled      = errors.New("date is not selectable")
	ErrMissingBookingID  = errors.New("booking id is required to edit a booking")
	ErrNotTerminal       = errors.New("submission is only possible from the final step")
	ErrSubmitting        = errors.New("submission already in progress")
	ErrNotReady          = errors.New("wizard is not ready")
	ErrNoReceiptPending  = errors.New("no receipt choice pending")
)

// GenericSubmitError is shown when a failed submission carries no server message.
const GenericSubmitError = "Failed to save booking. Please try again."

// GenericLoadError is shown when the catalog could not be loaded.
const GenericLoadError = "Failed to load booking data."

// StepError reports which step blocked an operation.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step.Title(), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// serverMessager is implemented by transport errors that carry a message
// the backend wants shown to the user.
type serverMessager interface {
	ServerMessage() string
}

// userMessage prefers a server-provided message and falls back to fallback.
func userMessage(err error, fallback string) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
