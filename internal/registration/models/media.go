package models

import (
	"fmt"
)

// VerificationStatus tracks review of an uploaded identity document.
type VerificationStatus string

const (
	StatusPending     VerificationStatus = "Pending"
	StatusUnderReview VerificationStatus = "Under Review"
	StatusApproved    VerificationStatus = "Approved"
	StatusRejected    VerificationStatus = "Rejected"
)

// IsValid reports whether s is one of the four known statuses.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseVerificationStatus parses s; empty input defaults to Pending.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	if s == "" {
		return StatusPending, nil
	}
	status := VerificationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown verification status %q", s)
	}
	return status, nil
}

// MediaIdentifier is a scanned government id.
type MediaIdentifier struct {
	DocumentTypeID int64              `json:"id_type_id"`
	Number         string             `json:"id_number,omitempty"`
	Payload        string             `json:"media_data,omitempty"`
	Status         VerificationStatus `json:"status,omitempty"`
}

// MediaRequirement is a scanned supporting document (clearance, waiver, ...).
type MediaRequirement struct {
	Name    string             `json:"name"`
	Number  string             `json:"requirement_number,omitempty"`
	Payload string             `json:"media_data,omitempty"`
	Status  VerificationStatus `json:"status,omitempty"`
}
