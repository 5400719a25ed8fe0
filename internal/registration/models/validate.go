package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Registration is the aggregate handed to the pipeline.
type Registration struct {
	Person   Person
	Role     RoleRecord
	Captures []Capture
}

// ValidatePerson checks the fields that must be present before the person is created.
func ValidatePerson(p Person) []dErrors.FieldError {
	var fields []dErrors.FieldError
	if strings.TrimSpace(p.FirstName) == "" {
		fields = append(fields, required("person.first_name"))
	}
	if strings.TrimSpace(p.LastName) == "" {
		fields = append(fields, required("person.last_name"))
	}
	if p.GenderID == 0 {
		fields = append(fields, required("person.gender_id"))
	}
	switch {
	case strings.TrimSpace(p.DateOfBirth) == "":
		fields = append(fields, required("person.date_of_birth"))
	case !validDate(p.DateOfBirth):
		fields = append(fields, dErrors.FieldError{Field: "person.date_of_birth", Message: "must be a date (YYYY-MM-DD)"})
	}
	if strings.TrimSpace(p.PlaceOfBirth) == "" {
		fields = append(fields, required("person.place_of_birth"))
	}
	if p.CivilStatusID == 0 {
		fields = append(fields, required("person.civil_status_id"))
	}
	for i, m := range p.MediaIdentifiers {
		if m.Status != "" && !m.Status.IsValid() {
			fields = append(fields, dErrors.FieldError{
				Field:   fmt.Sprintf("person.media_identifiers[%d].status", i),
				Message: "unknown status",
			})
		}
	}
	for i, m := range p.MediaRequirements {
		if m.Status != "" && !m.Status.IsValid() {
			fields = append(fields, dErrors.FieldError{
				Field:   fmt.Sprintf("person.media_requirements[%d].status", i),
				Message: "unknown status",
			})
		}
	}
	return fields
}

// Validate returns a CodeValidation error listing every missing or invalid
// field, or nil when the registration may be submitted.
func (r Registration) Validate() error {
	return asError(append(ValidatePerson(r.Person), r.validateDependents()...))
}

// ValidateDependents checks only the role record and captures. A resumed
// submission uses it because the person already exists upstream.
func (r Registration) ValidateDependents() error {
	return asError(r.validateDependents())
}

func (r Registration) validateDependents() []dErrors.FieldError {
	var fields []dErrors.FieldError
	if r.Role == nil {
		fields = append(fields, required("role"))
	} else {
		fields = append(fields, r.Role.Validate()...)
	}
	seen := make(map[Position]bool, len(r.Captures))
	for i, c := range r.Captures {
		// Absent samples are never submitted, so their positions don't matter.
		if !c.Present() {
			continue
		}
		if !c.Position.IsValid() {
			fields = append(fields, dErrors.FieldError{Field: fmt.Sprintf("captures[%d].position", i), Message: "unknown position"})
			continue
		}
		if seen[c.Position] {
			fields = append(fields, dErrors.FieldError{Field: fmt.Sprintf("captures[%d].position", i), Message: "duplicate position"})
		}
		seen[c.Position] = true
	}
	return fields
}

func asError(fields []dErrors.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return dErrors.Validation(fields)
}

func validDate(s string) bool {
	if _, err := time.Parse(DateLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
