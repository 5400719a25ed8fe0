package models

import (
	"encoding/json"
	"fmt"

	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// RoleRecord is the role-specific record registered after the Person exists.
// Implementations are values; WithPerson and Clone never mutate the receiver.
type RoleRecord interface {
	Kind() domain.RoleKind
	// Validate returns role-specific field errors, prefixed with "role.".
	Validate() []dErrors.FieldError
	// WithPerson returns a copy bound to the created person.
	WithPerson(id domain.PersonID) RoleRecord
	Clone() RoleRecord
}

// Remark is a free-text note attached to a role record.
type Remark struct {
	Text string `json:"remark"`
}

// CaseRecord is one criminal case held against a PDL.
type CaseRecord struct {
	OffenseID          int64  `json:"offense_id"`
	CourtBranchID      int64  `json:"court_branch_id,omitempty"`
	CaseNumber         string `json:"case_number,omitempty"`
	DateCrimeCommitted string `json:"date_crime_committed,omitempty"`
	DateCommitted      string `json:"date_committed,omitempty"`
	BailRecommended    string `json:"bail_recommended,omitempty"`
}

// PDLVisitorLink lists a visitor allowed to see the PDL.
type PDLVisitorLink struct {
	VisitorID      int64 `json:"visitor_id"`
	RelationshipID int64 `json:"relationship_to_pdl_id"`
}

// VisitorPDLLink lists a PDL the visitor is registered to see.
type VisitorPDLLink struct {
	PDLID          int64 `json:"pdl_id"`
	RelationshipID int64 `json:"relationship_to_pdl_id"`
}

// PDL is a person deprived of liberty.
type PDL struct {
	PersonID          domain.PersonID  `json:"person_id"`
	OrganizationID    int64            `json:"organization_id,omitempty"`
	JailID            int64            `json:"jail_id,omitempty"`
	StatusID          int64            `json:"status_id,omitempty"`
	GangAffiliationID int64            `json:"gang_affiliation_id,omitempty"`
	LookID            int64            `json:"look_id,omitempty"`
	Cases             []CaseRecord     `json:"cases"`
	Visitors          []PDLVisitorLink `json:"visitor"`
	Remarks           []Remark         `json:"remarks_data"`
}

func (PDL) Kind() domain.RoleKind { return domain.RolePDL }

func (r PDL) Validate() []dErrors.FieldError {
	var fields []dErrors.FieldError
	for i, c := range r.Cases {
		if c.OffenseID == 0 {
			fields = append(fields, required(fmt.Sprintf("role.cases[%d].offense_id", i)))
		}
	}
	for i, v := range r.Visitors {
		if v.VisitorID == 0 {
			fields = append(fields, required(fmt.Sprintf("role.visitor[%d].visitor_id", i)))
		}
		if v.RelationshipID == 0 {
			fields = append(fields, required(fmt.Sprintf("role.visitor[%d].relationship_to_pdl_id", i)))
		}
	}
	return fields
}

func (r PDL) WithPerson(id domain.PersonID) RoleRecord {
	out := r.Clone().(PDL)
	out.PersonID = id
	return out
}

func (r PDL) Clone() RoleRecord {
	r.Cases = cloneSlice(r.Cases)
	r.Visitors = cloneSlice(r.Visitors)
	r.Remarks = cloneSlice(r.Remarks)
	return r
}

// Visitor is a registered jail visitor.
type Visitor struct {
	PersonID         domain.PersonID  `json:"person_id"`
	VisitorTypeID    int64            `json:"visitor_type_id"`
	VisitorAppStatus string           `json:"visitor_app_status,omitempty"`
	Approved         bool             `json:"approved_by"`
	PDLs             []VisitorPDLLink `json:"pdls"`
	Remarks          []Remark         `json:"remarks_data"`
}

func (Visitor) Kind() domain.RoleKind { return domain.RoleVisitor }

func (r Visitor) Validate() []dErrors.FieldError {
	var fields []dErrors.FieldError
	if r.VisitorTypeID == 0 {
		fields = append(fields, required("role.visitor_type_id"))
	}
	for i, p := range r.PDLs {
		if p.PDLID == 0 {
			fields = append(fields, required(fmt.Sprintf("role.pdls[%d].pdl_id", i)))
		}
		if p.RelationshipID == 0 {
			fields = append(fields, required(fmt.Sprintf("role.pdls[%d].relationship_to_pdl_id", i)))
		}
	}
	return fields
}

func (r Visitor) WithPerson(id domain.PersonID) RoleRecord {
	out := r.Clone().(Visitor)
	out.PersonID = id
	return out
}

func (r Visitor) Clone() RoleRecord {
	r.PDLs = cloneSlice(r.PDLs)
	r.Remarks = cloneSlice(r.Remarks)
	return r
}

// Personnel is a jail staff member.
type Personnel struct {
	PersonID        domain.PersonID `json:"person_id"`
	OrganizationID  int64           `json:"organization_id,omitempty"`
	JailID          int64           `json:"jail_id,omitempty"`
	PersonnelTypeID int64           `json:"personnel_type_id"`
	RankID          int64           `json:"rank_id,omitempty"`
	PositionID      int64           `json:"position_id,omitempty"`
	DateJoined      string          `json:"date_joined,omitempty"`
	Remarks         []Remark        `json:"remarks_data"`
}

func (Personnel) Kind() domain.RoleKind { return domain.RolePersonnel }

func (r Personnel) Validate() []dErrors.FieldError {
	if r.PersonnelTypeID == 0 {
		return []dErrors.FieldError{required("role.personnel_type_id")}
	}
	return nil
}

func (r Personnel) WithPerson(id domain.PersonID) RoleRecord {
	out := r.Clone().(Personnel)
	out.PersonID = id
	return out
}

func (r Personnel) Clone() RoleRecord {
	r.Remarks = cloneSlice(r.Remarks)
	return r
}

// ServiceProvider is an outside contractor with facility access.
type ServiceProvider struct {
	PersonID           domain.PersonID `json:"person_id"`
	ProviderTypeID     int64           `json:"provider_type_id"`
	GroupAffiliationID int64           `json:"group_affiliation_id,omitempty"`
	Remarks            []Remark        `json:"remarks_data"`
}

func (ServiceProvider) Kind() domain.RoleKind { return domain.RoleServiceProvider }

func (r ServiceProvider) Validate() []dErrors.FieldError {
	if r.ProviderTypeID == 0 {
		return []dErrors.FieldError{required("role.provider_type_id")}
	}
	return nil
}

func (r ServiceProvider) WithPerson(id domain.PersonID) RoleRecord {
	out := r.Clone().(ServiceProvider)
	out.PersonID = id
	return out
}

func (r ServiceProvider) Clone() RoleRecord {
	r.Remarks = cloneSlice(r.Remarks)
	return r
}

// NewRole returns the zero record for kind.
func NewRole(kind domain.RoleKind) (RoleRecord, error) {
	switch kind {
	case domain.RolePDL:
		return PDL{}, nil
	case domain.RoleVisitor:
		return Visitor{}, nil
	case domain.RolePersonnel:
		return Personnel{}, nil
	case domain.RoleServiceProvider:
		return ServiceProvider{}, nil
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported role: "+kind.String())
}

// DecodeRole decodes raw into the record type for kind. Empty input yields the
// zero record so required-field validation reports what is missing.
func DecodeRole(kind domain.RoleKind, raw json.RawMessage) (RoleRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NewRole(kind)
	}
	var (
		rec RoleRecord
		err error
	)
	switch kind {
	case domain.RolePDL:
		var r PDL
		err = json.Unmarshal(raw, &r)
		rec = r
	case domain.RoleVisitor:
		var r Visitor
		err = json.Unmarshal(raw, &r)
		rec = r
	case domain.RolePersonnel:
		var r Personnel
		err = json.Unmarshal(raw, &r)
		rec = r
	case domain.RoleServiceProvider:
		var r ServiceProvider
		err = json.Unmarshal(raw, &r)
		rec = r
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported role: "+kind.String())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid role record")
	}
	return rec, nil
}

// RemarksOf returns the remarks carried by any role record.
func RemarksOf(r RoleRecord) []Remark {
	switch v := r.(type) {
	case PDL:
		return v.Remarks
	case Visitor:
		return v.Remarks
	case Personnel:
		return v.Remarks
	case ServiceProvider:
		return v.Remarks
	}
	return nil
}

// WithRemarks returns a copy of r carrying remarks.
func WithRemarks(r RoleRecord, remarks []Remark) RoleRecord {
	switch v := r.Clone().(type) {
	case PDL:
		v.Remarks = remarks
		return v
	case Visitor:
		v.Remarks = remarks
		return v
	case Personnel:
		v.Remarks = remarks
		return v
	case ServiceProvider:
		v.Remarks = remarks
		return v
	}
	return r
}

func required(field string) dErrors.FieldError {
	return dErrors.FieldError{Field: field, Message: "is required"}
}
