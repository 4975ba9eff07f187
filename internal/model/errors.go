package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrUnknownKey   = errors.New("unknown key code")
)

// ConnectionError reports a failed connect attempt.
type ConnectionError struct {
	Target string
	Op     string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s: %v", e.Target, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a frame that could not be decoded.
type ProtocolError struct {
	Frame string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", e.Frame, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// LocalizationFetchError reports a failed error message lookup.
type LocalizationFetchError struct {
	Codes []int
	Err   error
}

func (e *LocalizationFetchError) Error() string {
	return fmt.Sprintf("localize %v: %v", e.Codes, e.Err)
}

func (e *LocalizationFetchError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the printer's REST interface.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error %d: %s", e.StatusCode, e.Body)
}
