package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates that no identity is present.
	ErrUnauthenticated = errors.New("unauthenticated: no identity present")
	// ErrInvalidSession indicates that the operation needs an active recording session.
	ErrInvalidSession = errors.New("invalid recording session")
	// ErrNetwork indicates a transport-level failure.
	ErrNetwork = errors.New("network failure")
	// ErrServerRejected indicates a non-success response from the server.
	ErrServerRejected = errors.New("server rejected request")
)

// ServerError carries the details of a non-success response.
type ServerError struct {
	StatusCode int
	Status     string
	Detail     string
	Code       string
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error (%s): %s (code: %s)", e.Status, e.Detail, e.Code)
	}

	return fmt.Sprintf("server error (%s): %s", e.Status, e.Detail)
}

// Is makes every ServerError match ErrServerRejected.
func (e *ServerError) Is(target error) bool {
	return target == ErrServerRejected
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
