package courseapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors for backend failures. Every error returned by HTTPClient
// matches exactly one of them with errors.Is, except context cancellation.
var (
	ErrUnreachable       = errors.New("backend unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrUnauthorized      = errors.New("authorization denied")
	ErrValidation        = errors.New("validation rejected")
	ErrNotFound          = errors.New("not found")
	ErrServerFault       = errors.New("backend server fault")
	ErrRequestFailed     = errors.New("request failed")
)

// FieldErrors maps a form field to its server-side validation messages.
type FieldErrors map[string][]string

// Fields returns the field names in stable order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// APIError is a non-2xx backend response. It unwraps to one of the sentinels.
type APIError struct {
	StatusCode int
	Message    string
	Fields     FieldErrors
	kind       error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (status %d)", e.kind, e.StatusCode)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, name := range e.Fields.Fields() {
		fmt.Fprintf(&b, "; %s: %s", name, strings.Join(e.Fields[name], " "))
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// FieldErrorsOf extracts field-level validation messages from err, if any.
func FieldErrorsOf(err error) (FieldErrors, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		return apiErr.Fields, true
	}
	return nil, false
}

// newAPIError classifies a non-2xx status and parses the body. Bodies come
// in the shapes {"error": "..."}, {"detail": "..."}, {"message": "..."} or a
// field map {"field": ["msg", ...]}.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	e.Message, e.Fields = parseErrorBody(body)

	switch {
	case status == http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case status == http.StatusNotFound:
		e.kind = ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.kind = ErrValidation
	case status >= 400 && status < 500 && len(e.Fields) > 0:
		e.kind = ErrValidation
	case status >= 500:
		e.kind = ErrServerFault
	default:
		e.kind = ErrRequestFailed
	}
	return e
}

func parseErrorBody(body []byte) (string, FieldErrors) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", nil
	}

	var message string
	for _, key := range []string{"error", "detail", "message"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			message = s
			delete(obj, key)
			break
		}
	}

	fields := FieldErrors{}
	for key, raw := range obj {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			fields[key] = list
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			fields[key] = []string{s}
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return message, fields
}
