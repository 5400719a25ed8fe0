// Package form holds the in-progress registration as one immutable value.
// Every mutator returns a new State and leaves the receiver untouched, so a
// caller can keep earlier states (undo, audit, tests) without copying.
package form

import (
	"fmt"
	"maps"

	"registrar/internal/registration/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/dedupe"
)

// State is the aggregate being edited: the person, its role record and the
// biometric captures keyed by position.
type State struct {
	person   models.Person
	role     models.RoleRecord
	captures map[models.Position]models.Capture
}

// New starts an empty registration for kind.
func New(kind domain.RoleKind) (State, error) {
	role, err := models.NewRole(kind)
	if err != nil {
		return State{}, err
	}
	return State{role: role}, nil
}

// FromRegistration seeds a State from a decoded request.
func FromRegistration(reg models.Registration) (State, error) {
	s := State{person: reg.Person.Clone()}
	if reg.Role != nil {
		s.role = reg.Role.Clone()
	}
	for i, c := range reg.Captures {
		if !c.Present() {
			continue
		}
		if !c.Position.IsValid() {
			return State{}, dErrors.Validation([]dErrors.FieldError{{
				Field:   fmt.Sprintf("captures[%d].position", i),
				Message: "unknown position",
			}})
		}
		s = s.SetCapture(c)
	}
	return s, nil
}

// Person returns a deep copy of the person being edited.
func (s State) Person() models.Person {
	return s.person.Clone()
}

// Role returns a copy of the role record, nil when none was chosen.
func (s State) Role() models.RoleRecord {
	if s.role == nil {
		return nil
	}
	return s.role.Clone()
}

// Kind returns the role kind, empty when no role is set.
func (s State) Kind() domain.RoleKind {
	if s.role == nil {
		return ""
	}
	return s.role.Kind()
}

// Capture returns the capture held at p.
func (s State) Capture(p models.Position) (models.Capture, bool) {
	c, ok := s.captures[p]
	return c, ok
}

// Captures returns the present captures in enrollment order.
func (s State) Captures() []models.Capture {
	return models.PresentCaptures(s.captures)
}

// Registration snapshots the state for the pipeline.
func (s State) Registration() models.Registration {
	return models.Registration{
		Person:   s.Person(),
		Role:     s.Role(),
		Captures: s.Captures(),
	}
}

// Validate checks the snapshot without submitting it.
func (s State) Validate() error {
	return s.Registration().Validate()
}

// -----------------------------------------------------------------------------
// Identity fields
// -----------------------------------------------------------------------------

// UpdatePerson applies fn to a copy of the person.
func (s State) UpdatePerson(fn func(p *models.Person)) State {
	p := s.person.Clone()
	fn(&p)
	s.person = p
	return s
}

func (s State) WithFirstName(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.FirstName = v })
}

func (s State) WithMiddleName(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.MiddleName = v })
}

func (s State) WithLastName(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.LastName = v })
}

func (s State) WithSuffix(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.Suffix = v })
}

func (s State) WithGender(id int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.GenderID = id })
}

func (s State) WithCivilStatus(id int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.CivilStatusID = id })
}

func (s State) WithNationality(id int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.NationalityID = id })
}

func (s State) WithReligion(id int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.ReligionID = id })
}

func (s State) WithPrefix(id int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.PrefixID = id })
}

func (s State) WithDateOfBirth(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.DateOfBirth = v })
}

func (s State) WithPlaceOfBirth(v string) State {
	return s.UpdatePerson(func(p *models.Person) { p.PlaceOfBirth = v })
}

// SetSkills replaces the skill tags; duplicates and zero ids are dropped.
func (s State) SetSkills(ids []int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.SkillIDs = dedupe.Values(ids) })
}

func (s State) SetTalents(ids []int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.TalentIDs = dedupe.Values(ids) })
}

func (s State) SetInterests(ids []int64) State {
	return s.UpdatePerson(func(p *models.Person) { p.InterestIDs = dedupe.Values(ids) })
}

// -----------------------------------------------------------------------------
// Role
// -----------------------------------------------------------------------------

// WithRole replaces the role record. Switching kinds drops the old record.
func (s State) WithRole(role models.RoleRecord) State {
	if role == nil {
		s.role = nil
		return s
	}
	s.role = role.Clone()
	return s
}

// -----------------------------------------------------------------------------
// Biometric captures
// -----------------------------------------------------------------------------

// SetCapture stores c at its position, replacing any earlier sample.
func (s State) SetCapture(c models.Capture) State {
	next := maps.Clone(s.captures)
	if next == nil {
		next = make(map[models.Position]models.Capture, 1)
	}
	c.BiometricType = c.Position.Type()
	next[c.Position] = c
	s.captures = next
	return s
}

// ClearCapture removes the sample at p.
func (s State) ClearCapture(p models.Position) State {
	if _, ok := s.captures[p]; !ok {
		return s
	}
	next := maps.Clone(s.captures)
	delete(next, p)
	s.captures = next
	return s
}
