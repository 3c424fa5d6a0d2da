package workspace

import (
	"context"
	"errors"
	"net/http"

	"codequest/internal/remote"
)

var (
	ErrBusy      = errors.New("another operation is in progress")
	ErrNoProblem = errors.New("no problem selected")
	// ErrSuperseded is returned to the caller of an operation whose
	// completion arrived after a newer action or a cancel.
	ErrSuperseded = errors.New("operation superseded")
)

const (
	msgMissingTopic  = "Please enter both Data Structure and Topic"
	msgLoggedOut     = "Please log in to generate problems"
	msgTokenNotFound = "Authentication token not found. Please log in again."
	msgAuthFailed    = "Authentication failed. Please log in again."
	msgTimeout       = "request timed out"
	msgCanceled      = "request canceled"

	fallbackGenerate = "Failed to generate problems"
	fallbackRun      = "Failed to run tests"
	fallbackEvaluate = "Failed to evaluate solution"
)

// ValidationError is a local precondition failure; no request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError is a failed request. Message is what the user sees: the
// service's detail when present, otherwise an operation fallback.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.Err }

// UserMessage is the text shown for err in the error banner.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *ValidationError
		aerr *AuthError
		rerr *RemoteError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &aerr):
		return aerr.Message
	case errors.As(err, &rerr):
		return rerr.Message
	default:
		return err.Error()
	}
}

// classify maps a client failure onto the error taxonomy. authOn401 is set
// for generate, where 401 means the session is no longer valid.
func classify(err error, fallback string, authOn401 bool) error {
	var apiErr *remote.APIError
	switch {
	case errors.As(err, &apiErr):
		if authOn401 && apiErr.StatusCode == http.StatusUnauthorized {
			return &AuthError{Message: msgAuthFailed, Err: err}
		}
		msg := apiErr.Detail
		if msg == "" {
			msg = fallback
		}
		return &RemoteError{StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &RemoteError{Message: msgTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &RemoteError{Message: msgCanceled, Err: err}
	default:
		return &RemoteError{Message: fallback + ": " + err.Error(), Err: err}
	}
}
