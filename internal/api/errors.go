package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	Unclassified ErrorKind = iota
	NetworkUnavailable
	AuthExpired
	ValidationError
	Forbidden
	NotFound
	ServerError
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkUnavailable:
		return "network_unavailable"
	case AuthExpired:
		return "auth_expired"
	case ValidationError:
		return "validation_error"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ServerError:
		return "server_error"
	default:
		return "unclassified"
	}
}

// KindForStatus maps an HTTP status to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return ValidationError
	case status == http.StatusUnauthorized:
		return AuthExpired
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status >= 500:
		return ServerError
	default:
		return Unclassified
	}
}

var (
	// ErrSessionExpired wraps every refresh failure. The session has been
	// cleared by the time it is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken means a 401 arrived but no refresh token was stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// NetworkError reports a call that received no response at all: DNS,
// connection, or timeout failures.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("execute request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError is an HTTP error status returned by the API. It is the error
// callers receive; Message carries the human-readable text extracted from the
// body once the response has passed through the pipeline.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// Kind classifies the status code.
func (e *ResponseError) Kind() ErrorKind {
	return KindForStatus(e.StatusCode)
}

// NormalizedError is the human-facing shape of any pipeline failure.
type NormalizedError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
}

func (e *NormalizedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Normalize converts any error returned by the client into a NormalizedError.
// It returns nil for a nil error.
func Normalize(err error) *NormalizedError {
	if err == nil {
		return nil
	}

	var norm *NormalizedError
	if errors.As(err, &norm) {
		return norm
	}
	if errors.Is(err, ErrSessionExpired) {
		return &NormalizedError{
			Kind:       AuthExpired,
			Message:    "session expired, sign in again",
			StatusCode: http.StatusUnauthorized,
		}
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		msg := respErr.Message
		if msg == "" {
			msg = ExtractMessage(respErr.Body)
		}
		if msg == "" {
			msg = http.StatusText(respErr.StatusCode)
		}
		return &NormalizedError{Kind: respErr.Kind(), Message: msg, StatusCode: respErr.StatusCode}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return &NormalizedError{Kind: NetworkUnavailable, Message: "no response from server"}
	}

	return &NormalizedError{Kind: Unclassified, Message: err.Error()}
}

// Message returns the human-readable text for err.
func Message(err error) string {
	if n := Normalize(err); n != nil {
		return n.Message
	}
	return ""
}

// ExtractMessage pulls a human-readable message out of an error body. In
// priority order: a plain string body, a "detail" field, an "error" field,
// then field-keyed validation errors joined as "field: m1, m2; other: m3".
func ExtractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if !gjson.ValidBytes(trimmed) {
		return string(trimmed)
	}

	res := gjson.ParseBytes(trimmed)
	switch {
	case res.Type == gjson.String:
		return res.String()
	case res.IsObject():
		if detail := res.Get("detail"); detail.Exists() && detail.String() != "" {
			return detail.String()
		}
		if e := res.Get("error"); e.Exists() && e.String() != "" {
			return e.String()
		}
		return joinFieldErrors(res)
	case res.IsArray():
		return strings.Join(messages(res), "; ")
	default:
		return ""
	}
}

func joinFieldErrors(obj gjson.Result) string {
	var parts []string
	obj.ForEach(func(key, value gjson.Result) bool {
		field := key.String()
		switch {
		case value.IsArray():
			parts = append(parts, field+": "+strings.Join(messages(value), ", "))
		case value.Type == gjson.String:
			parts = append(parts, field+": "+value.String())
		default:
			parts = append(parts, field+": validation error")
		}
		return true
	})
	return strings.Join(parts, "; ")
}

func messages(arr gjson.Result) []string {
	items := arr.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}
