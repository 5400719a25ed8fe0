package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"registrar/internal/registration/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

type StateSuite struct {
	suite.Suite
	base State
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	st, err := New(domain.RolePDL)
	s.Require().NoError(err)
	s.base = st.
		WithFirstName("Juan").
		WithLastName("Dela Cruz").
		WithGender(1).
		WithDateOfBirth("1990-01-01").
		WithPlaceOfBirth("Manila").
		WithCivilStatus(2)
}

// =============================================================================
// Immutability
// =============================================================================

func (s *StateSuite) TestMutatorsDoNotTouchReceiver() {
	before := s.base
	after := before.WithFirstName("Pedro").AddAddress(models.Address{Type: "home"}).SetSkills([]int64{4})

	s.Equal("Juan", before.Person().FirstName)
	s.Empty(before.Person().Addresses)
	s.Empty(before.Person().SkillIDs)

	s.Equal("Pedro", after.Person().FirstName)
	s.Len(after.Person().Addresses, 1)
}

func (s *StateSuite) TestPersonAccessorReturnsCopy() {
	st := s.base.AddContact(models.Contact{Type: "mobile", Value: "0917"})
	p := st.Person()
	p.Contacts[0].Value = "changed"

	s.Equal("0917", st.Person().Contacts[0].Value)
}

func (s *StateSuite) TestSiblingStatesDoNotShareBackingArrays() {
	one := s.base.AddAddress(models.Address{Type: "home"})
	a := one.AddAddress(models.Address{Type: "work"})
	b := one.AddAddress(models.Address{Type: "provincial"})

	s.Equal("work", a.Person().Addresses[1].Type)
	s.Equal("provincial", b.Person().Addresses[1].Type)
}

// =============================================================================
// Indexed collections
// =============================================================================

func (s *StateSuite) TestUpdateAndRemoveByIndex() {
	st := s.base.
		AddContact(models.Contact{Value: "a"}).
		AddContact(models.Contact{Value: "b"}).
		AddContact(models.Contact{Value: "c"})

	updated, err := st.UpdateContactAt(1, models.Contact{Value: "B"})
	s.Require().NoError(err)
	s.Equal("B", updated.Person().Contacts[1].Value)
	s.Equal("b", st.Person().Contacts[1].Value)

	removed, err := updated.RemoveContactAt(0)
	s.Require().NoError(err)
	s.Equal([]string{"B", "c"}, contactValues(removed))
	s.Equal([]string{"a", "B", "c"}, contactValues(updated))
}

func (s *StateSuite) TestOutOfRangeLeavesStateUnchanged() {
	st := s.base.AddAddress(models.Address{Type: "home"})

	for _, idx := range []int{-1, 1, 7} {
		got, err := st.RemoveAddressAt(idx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(st.Person(), got.Person())
	}

	_, err := st.UpdateMediaRequirementAt(0, models.MediaRequirement{})
	s.Require().Error(err)
	s.Equal("person.media_requirements[0]", dErrors.FieldsOf(err)[0].Field)
}

func (s *StateSuite) TestMediaDefaultsToPending() {
	st := s.base.
		AddMediaIdentifier(models.MediaIdentifier{DocumentTypeID: 2}).
		AddMediaRequirement(models.MediaRequirement{Name: "NBI clearance", Status: models.StatusApproved})

	s.Equal(models.StatusPending, st.Person().MediaIdentifiers[0].Status)
	s.Equal(models.StatusApproved, st.Person().MediaRequirements[0].Status)
}

func (s *StateSuite) TestSiblingsCollection() {
	st := s.base.AddSibling(models.MultipleBirthSibling{ClassificationID: 1})
	st, err := st.UpdateSiblingAt(0, models.MultipleBirthSibling{ClassificationID: 2, SiblingPersonID: "77"})
	s.Require().NoError(err)
	s.Equal(domain.PersonID("77"), st.Person().MultipleBirthSiblings[0].SiblingPersonID)

	st, err = st.RemoveSiblingAt(0)
	s.Require().NoError(err)
	s.Empty(st.Person().MultipleBirthSiblings)
}

// =============================================================================
// Tags
// =============================================================================

func (s *StateSuite) TestTagListsAreDeduped() {
	st := s.base.
		SetSkills([]int64{3, 3, 1, 0}).
		SetTalents([]int64{2, 2}).
		SetInterests(nil)

	p := st.Person()
	s.Equal([]int64{3, 1}, p.SkillIDs)
	s.Equal([]int64{2}, p.TalentIDs)
	s.Nil(p.InterestIDs)
}

// =============================================================================
// Role collections
// =============================================================================

func (s *StateSuite) TestPDLCollections() {
	st, err := s.base.AddCase(models.CaseRecord{OffenseID: 12, CaseNumber: "CR-1"})
	s.Require().NoError(err)
	st, err = st.AddPDLVisitor(models.PDLVisitorLink{VisitorID: 5, RelationshipID: 1})
	s.Require().NoError(err)
	st, err = st.UpdateCaseAt(0, models.CaseRecord{OffenseID: 13})
	s.Require().NoError(err)
	st, err = st.AddRemark("transferred from annex")
	s.Require().NoError(err)

	pdl := st.Role().(models.PDL)
	s.Equal(int64(13), pdl.Cases[0].OffenseID)
	s.Len(pdl.Visitors, 1)
	s.Equal([]models.Remark{{Text: "transferred from annex"}}, pdl.Remarks)

	s.Empty(s.base.Role().(models.PDL).Cases)

	st, err = st.RemovePDLVisitorAt(0)
	s.Require().NoError(err)
	s.Empty(st.Role().(models.PDL).Visitors)

	_, err = st.UpdatePDLVisitorAt(0, models.PDLVisitorLink{})
	s.Error(err)
}

func (s *StateSuite) TestVisitorCollectionsRequireVisitorRole() {
	_, err := s.base.AddVisitorPDL(models.VisitorPDLLink{PDLID: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	st := s.base.WithRole(models.Visitor{VisitorTypeID: 1})
	st, err = st.AddVisitorPDL(models.VisitorPDLLink{PDLID: 1, RelationshipID: 2})
	s.Require().NoError(err)
	st, err = st.UpdateVisitorPDLAt(0, models.VisitorPDLLink{PDLID: 3, RelationshipID: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), st.Role().(models.Visitor).PDLs[0].PDLID)

	st, err = st.RemoveVisitorPDLAt(0)
	s.Require().NoError(err)
	s.Empty(st.Role().(models.Visitor).PDLs)

	_, err = st.AddCase(models.CaseRecord{})
	s.Error(err)
}

func (s *StateSuite) TestRemarks() {
	st, err := s.base.WithRole(models.Personnel{PersonnelTypeID: 1}).AddRemark("first")
	s.Require().NoError(err)
	st, err = st.AddRemark("second")
	s.Require().NoError(err)
	st, err = st.UpdateRemarkAt(1, "SECOND")
	s.Require().NoError(err)
	st, err = st.RemoveRemarkAt(0)
	s.Require().NoError(err)

	s.Equal([]models.Remark{{Text: "SECOND"}}, models.RemarksOf(st.Role()))

	_, err = State{}.AddRemark("x")
	s.Error(err)
}

// =============================================================================
// Captures
// =============================================================================

func (s *StateSuite) TestCaptures() {
	st := s.base.
		SetCapture(models.Capture{Position: models.PositionLeftIndex, UploadData: "l"}).
		SetCapture(models.Capture{Position: models.PositionFace, UploadData: "f"}).
		SetCapture(models.Capture{Position: models.PositionIrisLeft})

	captures := st.Captures()
	s.Require().Len(captures, 2, "empty payloads are not present")
	s.Equal(models.PositionFace, captures[0].Position)
	s.Equal(models.BiometricFingerprint, captures[1].BiometricType)

	cleared := st.ClearCapture(models.PositionFace)
	s.Len(cleared.Captures(), 1)
	s.Len(st.Captures(), 2)

	_, ok := cleared.Capture(models.PositionFace)
	s.False(ok)
	s.Equal(cleared, cleared.ClearCapture(models.PositionFace))
}

func (s *StateSuite) TestRegistrationSnapshotValidates() {
	s.NoError(s.base.Validate())

	missing := s.base.WithPlaceOfBirth("")
	err := missing.Validate()
	s.Require().Error(err)
	s.Equal("person.place_of_birth", dErrors.FieldsOf(err)[0].Field)
}

func TestFromRegistration(t *testing.T) {
	reg := models.Registration{
		Person: models.Person{FirstName: "Ana"},
		Role:   models.Visitor{VisitorTypeID: 4},
		Captures: []models.Capture{
			{Position: models.PositionRightThumb, UploadData: "x"},
		},
	}
	st, err := FromRegistration(reg)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVisitor, st.Kind())
	assert.Len(t, st.Captures(), 1)

	reg.Captures = append(reg.Captures,
		models.Capture{Position: models.PositionRightThumb},
		models.Capture{Position: "elbow"},
	)
	st, err = FromRegistration(reg)
	require.NoError(t, err, "absent samples are skipped")
	got, ok := st.Capture(models.PositionRightThumb)
	require.True(t, ok)
	assert.Equal(t, "x", got.UploadData, "an empty duplicate does not clear the sample")

	reg.Captures = append(reg.Captures, models.Capture{Position: "elbow", UploadData: "y"})
	_, err = FromRegistration(reg)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestHistory(t *testing.T) {
	st, err := New(domain.RoleServiceProvider)
	require.NoError(t, err)

	h := NewHistory(st)
	h.Apply(func(s State) State { return s.WithFirstName("Maria") })
	h.Apply(func(s State) State { return s.WithLastName("Santos") })
	_, err = h.ApplyE(func(s State) (State, error) { return s.RemoveContactAt(3) })
	require.Error(t, err)

	require.Equal(t, 3, h.Len())
	assert.Equal(t, "", h.At(0).Person().FirstName)
	assert.Equal(t, "Maria", h.At(1).Person().FirstName)
	assert.Equal(t, "Santos", h.Current().Person().LastName)

	prev, ok := h.Undo()
	assert.True(t, ok)
	assert.Empty(t, prev.Person().LastName)
	h.Undo()
	_, ok = h.Undo()
	assert.False(t, ok)
}

func TestNewRejectsUnknownRole(t *testing.T) {
	_, err := New(domain.RoleKind("warden"))
	assert.Error(t, err)
}

func contactValues(st State) []string {
	var out []string
	for _, c := range st.Person().Contacts {
		out = append(out, c.Value)
	}
	return out
}
