// Package domain holds the domain primitives shared across the registrar.
// Values are constructed through Parse functions at trust boundaries.
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "registrar/pkg/domain-errors"
)

// AttemptID identifies one journaled registration attempt.
type AttemptID uuid.UUID

func NewAttemptID() AttemptID { return AttemptID(uuid.New()) }

func (id AttemptID) String() string { return uuid.UUID(id).String() }

func (id AttemptID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id AttemptID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AttemptID) UnmarshalText(b []byte) error {
	parsed, err := ParseAttemptID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseAttemptID rejects empty, malformed and nil UUIDs.
func ParseAttemptID(s string) (AttemptID, error) {
	if s == "" {
		return AttemptID{}, dErrors.New(dErrors.CodeBadRequest, "attempt id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return AttemptID{}, dErrors.New(dErrors.CodeBadRequest, "invalid attempt id")
	}
	if parsed == uuid.Nil {
		return AttemptID{}, dErrors.New(dErrors.CodeBadRequest, "attempt id must not be nil")
	}
	return AttemptID(parsed), nil
}

const maxPersonIDLength = 64

// PersonID is the identifier the records backend assigns to a created Person.
// The backend may render it as a JSON number or a string; both decode to the
// same value and numeric ids are re-encoded as numbers.
type PersonID string

func (id PersonID) String() string { return string(id) }

func (id PersonID) IsZero() bool { return id == "" }

// ParsePersonID accepts a non-empty printable token without whitespace.
func ParsePersonID(s string) (PersonID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "person id is required")
	}
	if len(s) > maxPersonIDLength || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid person id")
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == 0x7f || r == '\u200b' }) {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid person id")
	}
	return PersonID(s), nil
}

func (id PersonID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *PersonID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = PersonID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "person id must be a string or number")
	}
	*id = PersonID(n.String())
	return nil
}
