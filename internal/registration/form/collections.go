package form

import (
	"fmt"

	"registrar/internal/registration/models"
	dErrors "registrar/pkg/domain-errors"
)

func appendCopy[T any](in []T, v T) []T {
	out := make([]T, len(in), len(in)+1)
	copy(out, in)
	return append(out, v)
}

func replaceAt[T any](in []T, i int, v T, field string) ([]T, error) {
	if i < 0 || i >= len(in) {
		return nil, indexError(field, i, len(in))
	}
	out := make([]T, len(in))
	copy(out, in)
	out[i] = v
	return out, nil
}

func removeAt[T any](in []T, i int, field string) ([]T, error) {
	if i < 0 || i >= len(in) {
		return nil, indexError(field, i, len(in))
	}
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...), nil
}

func indexError(field string, i, n int) error {
	return dErrors.Validation([]dErrors.FieldError{{
		Field:   fmt.Sprintf("%s[%d]", field, i),
		Message: fmt.Sprintf("index out of range (have %d)", n),
	}})
}

// -----------------------------------------------------------------------------
// Person collections
// -----------------------------------------------------------------------------

func (s State) AddAddress(a models.Address) State {
	return s.UpdatePerson(func(p *models.Person) { p.Addresses = appendCopy(p.Addresses, a) })
}

func (s State) UpdateAddressAt(i int, a models.Address) (State, error) {
	out, err := replaceAt(s.person.Addresses, i, a, "person.addresses")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.Addresses = out }), nil
}

func (s State) RemoveAddressAt(i int) (State, error) {
	out, err := removeAt(s.person.Addresses, i, "person.addresses")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.Addresses = out }), nil
}

func (s State) AddContact(c models.Contact) State {
	return s.UpdatePerson(func(p *models.Person) { p.Contacts = appendCopy(p.Contacts, c) })
}

func (s State) UpdateContactAt(i int, c models.Contact) (State, error) {
	out, err := replaceAt(s.person.Contacts, i, c, "person.contacts")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.Contacts = out }), nil
}

func (s State) RemoveContactAt(i int) (State, error) {
	out, err := removeAt(s.person.Contacts, i, "person.contacts")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.Contacts = out }), nil
}

func (s State) AddSibling(m models.MultipleBirthSibling) State {
	return s.UpdatePerson(func(p *models.Person) {
		p.MultipleBirthSiblings = appendCopy(p.MultipleBirthSiblings, m)
	})
}

func (s State) UpdateSiblingAt(i int, m models.MultipleBirthSibling) (State, error) {
	out, err := replaceAt(s.person.MultipleBirthSiblings, i, m, "person.multiple_birth_siblings")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MultipleBirthSiblings = out }), nil
}

func (s State) RemoveSiblingAt(i int) (State, error) {
	out, err := removeAt(s.person.MultipleBirthSiblings, i, "person.multiple_birth_siblings")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MultipleBirthSiblings = out }), nil
}

func (s State) AddMediaIdentifier(m models.MediaIdentifier) State {
	if m.Status == "" {
		m.Status = models.StatusPending
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaIdentifiers = appendCopy(p.MediaIdentifiers, m) })
}

func (s State) UpdateMediaIdentifierAt(i int, m models.MediaIdentifier) (State, error) {
	out, err := replaceAt(s.person.MediaIdentifiers, i, m, "person.media_identifiers")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaIdentifiers = out }), nil
}

func (s State) RemoveMediaIdentifierAt(i int) (State, error) {
	out, err := removeAt(s.person.MediaIdentifiers, i, "person.media_identifiers")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaIdentifiers = out }), nil
}

func (s State) AddMediaRequirement(m models.MediaRequirement) State {
	if m.Status == "" {
		m.Status = models.StatusPending
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaRequirements = appendCopy(p.MediaRequirements, m) })
}

func (s State) UpdateMediaRequirementAt(i int, m models.MediaRequirement) (State, error) {
	out, err := replaceAt(s.person.MediaRequirements, i, m, "person.media_requirements")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaRequirements = out }), nil
}

func (s State) RemoveMediaRequirementAt(i int) (State, error) {
	out, err := removeAt(s.person.MediaRequirements, i, "person.media_requirements")
	if err != nil {
		return s, err
	}
	return s.UpdatePerson(func(p *models.Person) { p.MediaRequirements = out }), nil
}

// -----------------------------------------------------------------------------
// Role collections
// -----------------------------------------------------------------------------

func (s State) pdl() (models.PDL, error) {
	r, ok := s.role.(models.PDL)
	if !ok {
		return models.PDL{}, dErrors.New(dErrors.CodeBadRequest, "role is not a pdl")
	}
	return r.Clone().(models.PDL), nil
}

func (s State) visitor() (models.Visitor, error) {
	r, ok := s.role.(models.Visitor)
	if !ok {
		return models.Visitor{}, dErrors.New(dErrors.CodeBadRequest, "role is not a visitor")
	}
	return r.Clone().(models.Visitor), nil
}

func (s State) AddCase(c models.CaseRecord) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	r.Cases = appendCopy(r.Cases, c)
	s.role = r
	return s, nil
}

func (s State) UpdateCaseAt(i int, c models.CaseRecord) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	if r.Cases, err = replaceAt(r.Cases, i, c, "role.cases"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) RemoveCaseAt(i int) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	if r.Cases, err = removeAt(r.Cases, i, "role.cases"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) AddPDLVisitor(v models.PDLVisitorLink) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	r.Visitors = appendCopy(r.Visitors, v)
	s.role = r
	return s, nil
}

func (s State) UpdatePDLVisitorAt(i int, v models.PDLVisitorLink) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	if r.Visitors, err = replaceAt(r.Visitors, i, v, "role.visitor"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) RemovePDLVisitorAt(i int) (State, error) {
	r, err := s.pdl()
	if err != nil {
		return s, err
	}
	if r.Visitors, err = removeAt(r.Visitors, i, "role.visitor"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) AddVisitorPDL(link models.VisitorPDLLink) (State, error) {
	r, err := s.visitor()
	if err != nil {
		return s, err
	}
	r.PDLs = appendCopy(r.PDLs, link)
	s.role = r
	return s, nil
}

func (s State) UpdateVisitorPDLAt(i int, link models.VisitorPDLLink) (State, error) {
	r, err := s.visitor()
	if err != nil {
		return s, err
	}
	if r.PDLs, err = replaceAt(r.PDLs, i, link, "role.pdls"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) RemoveVisitorPDLAt(i int) (State, error) {
	r, err := s.visitor()
	if err != nil {
		return s, err
	}
	if r.PDLs, err = removeAt(r.PDLs, i, "role.pdls"); err != nil {
		return s, err
	}
	s.role = r
	return s, nil
}

func (s State) AddRemark(text string) (State, error) {
	if s.role == nil {
		return s, dErrors.New(dErrors.CodeBadRequest, "no role selected")
	}
	s.role = models.WithRemarks(s.role, appendCopy(models.RemarksOf(s.role), models.Remark{Text: text}))
	return s, nil
}

func (s State) UpdateRemarkAt(i int, text string) (State, error) {
	if s.role == nil {
		return s, dErrors.New(dErrors.CodeBadRequest, "no role selected")
	}
	out, err := replaceAt(models.RemarksOf(s.role), i, models.Remark{Text: text}, "role.remarks_data")
	if err != nil {
		return s, err
	}
	s.role = models.WithRemarks(s.role, out)
	return s, nil
}

func (s State) RemoveRemarkAt(i int) (State, error) {
	if s.role == nil {
		return s, dErrors.New(dErrors.CodeBadRequest, "no role selected")
	}
	out, err := removeAt(models.RemarksOf(s.role), i, "role.remarks_data")
	if err != nil {
		return s, err
	}
	s.role = models.WithRemarks(s.role, out)
	return s, nil
}
