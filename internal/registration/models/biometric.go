package models

import (
	"fmt"

	"registrar/pkg/domain"
)

// Position is one of the fixed capture slots.
type Position string

const (
	PositionFace        Position = "face"
	PositionIrisLeft    Position = "iris_left"
	PositionIrisRight   Position = "iris_right"
	PositionRightThumb  Position = "finger_right_thumb"
	PositionRightIndex  Position = "finger_right_index"
	PositionRightMiddle Position = "finger_right_middle"
	PositionRightRing   Position = "finger_right_ring"
	PositionRightLittle Position = "finger_right_little"
	PositionLeftThumb   Position = "finger_left_thumb"
	PositionLeftIndex   Position = "finger_left_index"
	PositionLeftMiddle  Position = "finger_left_middle"
	PositionLeftRing    Position = "finger_left_ring"
	PositionLeftLittle  Position = "finger_left_little"
	PositionThumbs      Position = "finger_thumbs"
)

// BiometricType groups positions by modality.
type BiometricType string

const (
	BiometricFace        BiometricType = "face"
	BiometricIris        BiometricType = "iris"
	BiometricFingerprint BiometricType = "fingerprint"
)

var positions = []Position{
	PositionFace,
	PositionIrisLeft,
	PositionIrisRight,
	PositionRightThumb,
	PositionRightIndex,
	PositionRightMiddle,
	PositionRightRing,
	PositionRightLittle,
	PositionLeftThumb,
	PositionLeftIndex,
	PositionLeftMiddle,
	PositionLeftRing,
	PositionLeftLittle,
	PositionThumbs,
}

// Positions returns every capture slot in enrollment order.
func Positions() []Position {
	return append([]Position(nil), positions...)
}

func (p Position) IsValid() bool {
	for _, known := range positions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePosition validates an inbound position name.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown biometric position %q", s)
	}
	return p, nil
}

// Type returns the modality the position belongs to.
func (p Position) Type() BiometricType {
	switch p {
	case PositionFace:
		return BiometricFace
	case PositionIrisLeft, PositionIrisRight:
		return BiometricIris
	default:
		return BiometricFingerprint
	}
}

// Capture is one biometric sample awaiting enrollment. Person is filled in
// once the person record exists.
type Capture struct {
	Person          domain.PersonID `json:"person"`
	BiometricType   BiometricType   `json:"biometric_type"`
	Position        Position        `json:"position"`
	PlaceRegistered string          `json:"place_registered"`
	UploadData      string          `json:"upload_data"`
	Remarks         string          `json:"remarks"`
}

// Present reports whether the slot holds sample data.
func (c Capture) Present() bool {
	return c.UploadData != ""
}

// ForPerson returns a copy bound to id with the modality derived from the position.
func (c Capture) ForPerson(id domain.PersonID) Capture {
	c.Person = id
	c.BiometricType = c.Position.Type()
	return c
}

// PresentCaptures returns present captures in enrollment order.
func PresentCaptures(captures map[Position]Capture) []Capture {
	out := make([]Capture, 0, len(captures))
	for _, p := range positions {
		if c, ok := captures[p]; ok && c.Present() {
			c.Position = p
			out = append(out, c)
		}
	}
	return out
}
