package domain

import dErrors "registrar/pkg/domain-errors"

// RoleKind names the role-specific record registered alongside a Person.
// Invariant: the value must be one of the supported roles.
//
// Construct via ParseRoleKind at trust boundaries; direct casting bypasses
// the allowlist.
type RoleKind string

const (
	RolePDL             RoleKind = "pdl"
	RoleVisitor         RoleKind = "visitor"
	RolePersonnel       RoleKind = "personnel"
	RoleServiceProvider RoleKind = "service-provider"
)

var validRoleKinds = map[RoleKind]bool{
	RolePDL:             true,
	RoleVisitor:         true,
	RolePersonnel:       true,
	RoleServiceProvider: true,
}

// ParseRoleKind constructs a RoleKind from external input.
func ParseRoleKind(s string) (RoleKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "role is required")
	}
	kind := RoleKind(s)
	if !validRoleKinds[kind] {
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported role: "+s)
	}
	return kind, nil
}

func (k RoleKind) IsValid() bool { return validRoleKinds[k] }

func (k RoleKind) String() string { return string(k) }

// Path is the upstream collection the role record is posted to.
func (k RoleKind) Path() string { return "/" + string(k) }
