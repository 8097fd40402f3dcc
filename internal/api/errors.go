package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UnknownError is reported when an error payload has no recognisable shape.
const UnknownError = "Unknown error"

// Error is a non-2xx response.
type Error struct {
	Method     string
	Path       string
	Status     int
	StatusText string
	Payload    json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.StatusText)
}

// Message extracts the user-facing message from the payload:
//   - object: its "statusText" field, else the HTTP status text
//   - non-empty list: the first element's "message"
//   - anything else: UnknownError
func (e *Error) Message() string {
	p := bytes.TrimSpace(e.Payload)
	if len(p) == 0 {
		return UnknownError
	}
	switch p[0] {
	case '{':
		var obj struct {
			StatusText string `json:"statusText"`
		}
		if err := json.Unmarshal(p, &obj); err != nil {
			return UnknownError
		}
		if s := strings.TrimSpace(obj.StatusText); s != "" {
			return s
		}
		if s := strings.TrimSpace(e.StatusText); s != "" {
			return s
		}
		return UnknownError
	case '[':
		var list []struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(p, &list); err != nil || len(list) == 0 {
			return UnknownError
		}
		if s := strings.TrimSpace(list[0].Message); s != "" {
			return s
		}
		return UnknownError
	default:
		return UnknownError
	}
}

// NotFound reports a 404.
func (e *Error) NotFound() bool { return e.Status == 404 }

// TransportError is a failure before any response was read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorMessage maps any error from this package to a user-facing message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return UnknownError
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NotFound()
}
