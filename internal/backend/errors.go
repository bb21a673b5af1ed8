package backend

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNotReady is returned when the backend answers 503 because its model is still loading.
var ErrNotReady = errors.New("backend is not ready")

// TransportError means the request never completed (connection refused, timeout, reset).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a well-formed failure reported by the backend.
type ApplicationError struct {
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("backend error (http %d): %s", e.Status, e.Message)
}

// ContractError means the backend answered with something outside the documented contract.
type ContractError struct {
	Status int
	Err    error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("unexpected backend payload (http %d): %v", e.Status, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", code)
}
