package models

import (
	"strings"

	apperrors "go-focus-evaluator/internal/errors"
)

// Modality is the imaging technique a frame was captured with.
type Modality string

const (
	Brightfield Modality = "Brightfield"
	DIC         Modality = "DIC"
)

// AllModalities returns the modalities in reporting order.
func AllModalities() []Modality {
	return []Modality{Brightfield, DIC}
}

func (m Modality) String() string {
	return string(m)
}

// ParseModality accepts brightfield, bf and dic in any case.
func ParseModality(s string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brightfield", "bf":
		return Brightfield, nil
	case "dic":
		return DIC, nil
	default:
		return "", apperrors.NewUnknownModalityError(s)
	}
}
