// Package derive computes values that follow from other fields: the short
// name, the age and display labels. Nothing here is stored; callers derive on
// read so a value can never drift from its inputs.
package derive

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"registrar/internal/registration/models"
)

// ShortName is the upper-cased first letters of the first and last names,
// or "" when either name is blank.
func ShortName(first, last string) string {
	f, ok := initial(first)
	if !ok {
		return ""
	}
	l, ok := initial(last)
	if !ok {
		return ""
	}
	return string([]rune{unicode.ToUpper(f), unicode.ToUpper(l)})
}

func initial(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

// Age returns whole years between dob and asOf. The boolean is false when dob
// is empty, unparsable or after asOf.
func Age(dob string, asOf time.Time) (int, bool) {
	born, ok := parseDate(dob)
	if !ok {
		return 0, false
	}
	y1, m1, d1 := born.Date()
	y2, m2, d2 := asOf.Date()
	years := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		years--
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Normalize returns the person with its derived fields filled in.
func Normalize(p models.Person) models.Person {
	out := p.Clone()
	out.ShortName = ShortName(p.FirstName, p.LastName)
	return out
}
