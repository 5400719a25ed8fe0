package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

// DefaultMessage is shown when the backend's error body says nothing usable.
const DefaultMessage = "An unexpected error occurred."

// Kind separates failures the operator can fix from ones they cannot.
type Kind string

const (
	// KindTransport is a network failure, timeout or 5xx.
	KindTransport Kind = "transport"
	// KindDomain is a 4xx with a (possibly) structured reason.
	KindDomain Kind = "domain"
)

// Error is returned by every Client call that did not succeed.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code maps the failure onto the shared error taxonomy.
func (e *Error) Code() dErrors.Code {
	if e.Kind == KindDomain {
		return dErrors.CodeBackendRejected
	}
	return dErrors.CodeTransport
}

// MessageOf returns the user-facing reason carried by err.
func MessageOf(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return DefaultMessage
}

// ExtractMessage pulls a reason out of an error body. It tries "message",
// "error" and "detail" string fields, then the first entry of any field
// array (sorted by field name), e.g. {"email": ["This field is required."]}.
func ExtractMessage(body []byte) string {
	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		if msg := firstString(list); msg != "" {
			return msg
		}
		return DefaultMessage
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return DefaultMessage
	}
	for _, key := range []string{"message", "error", "detail"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if arr, ok := payload[k].([]any); ok {
			if msg := firstString(arr); msg != "" {
				return msg
			}
		}
	}
	return DefaultMessage
}

func firstString(values []any) string {
	if len(values) == 0 {
		return ""
	}
	if s, ok := values[0].(string); ok {
		return s
	}
	return ""
}
