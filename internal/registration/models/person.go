// Package models holds the registration aggregate: a Person, its nested
// collections, the role record that references it and the biometric captures
// enrolled against it.
package models

import (
	"slices"

	"registrar/pkg/domain"
)

// Person is the core identity record created first in every registration.
// Foreign keys are int64 lookup ids; zero means unset.
type Person struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	LastName      string `json:"last_name"`
	Suffix        string `json:"suffix,omitempty"`
	ShortName     string `json:"shortname,omitempty"`
	PrefixID      int64  `json:"prefix_id,omitempty"`
	GenderID      int64  `json:"gender_id,omitempty"`
	NationalityID int64  `json:"nationality_id,omitempty"`
	CivilStatusID int64  `json:"civil_status_id,omitempty"`
	ReligionID    int64  `json:"religion_id,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	PlaceOfBirth  string `json:"place_of_birth,omitempty"`

	Addresses             []Address              `json:"addresses"`
	Contacts              []Contact              `json:"contacts"`
	MultipleBirthSiblings []MultipleBirthSibling `json:"multiple_birth_siblings"`
	MediaIdentifiers      []MediaIdentifier      `json:"media_identifiers"`
	MediaRequirements     []MediaRequirement     `json:"media_requirements"`

	SkillIDs    []int64 `json:"skill_id"`
	TalentIDs   []int64 `json:"talent_id"`
	InterestIDs []int64 `json:"interest_id"`
}

// Clone returns a deep copy. Nested collections never alias the receiver.
func (p Person) Clone() Person {
	out := p
	out.Addresses = cloneSlice(p.Addresses)
	out.Contacts = cloneSlice(p.Contacts)
	out.MultipleBirthSiblings = cloneSlice(p.MultipleBirthSiblings)
	out.MediaIdentifiers = cloneSlice(p.MediaIdentifiers)
	out.MediaRequirements = cloneSlice(p.MediaRequirements)
	out.SkillIDs = cloneSlice(p.SkillIDs)
	out.TalentIDs = cloneSlice(p.TalentIDs)
	out.InterestIDs = cloneSlice(p.InterestIDs)
	return out
}

// Address is one postal address with its region/province/municipality/barangay chain.
type Address struct {
	Type           string `json:"type"`
	RegionID       int64  `json:"region_id,omitempty"`
	ProvinceID     int64  `json:"province_id,omitempty"`
	MunicipalityID int64  `json:"municipality_id,omitempty"`
	BarangayID     int64  `json:"barangay_id,omitempty"`
	Street         string `json:"street,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	IsCurrent      bool   `json:"is_current"`
	IsActive       bool   `json:"is_active"`
	Latitude       string `json:"latitude,omitempty"`
	Longitude      string `json:"longitude,omitempty"`
}

// Contact is a phone number or email address.
type Contact struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	MobileIMEI string `json:"mobile_imei,omitempty"`
	IsPrimary  bool   `json:"is_primary"`
	IsActive   bool   `json:"is_active"`
}

// MultipleBirthSibling links a twin/triplet classification and, optionally,
// the sibling's own person record.
type MultipleBirthSibling struct {
	ClassificationID int64           `json:"multiple_birth_class_id"`
	SiblingPersonID  domain.PersonID `json:"sibling_person_id,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
}

// cloneSlice keeps nil as nil so JSON output does not change across copies.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return slices.Clone(in)
}
