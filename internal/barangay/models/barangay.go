package models

import (
	"regexp"
	"strings"
	"time"

	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
)

// controlCodePattern: barangay control codes are short numeric strings used
// as the prefix of every beneficiary ID number issued in that barangay.
var controlCodePattern = regexp.MustCompile(`^[0-9]{2,6}$`)

// Barangay is the smallest administrative subdivision in the registry.
//
// Invariants:
//   - Name is non-empty, at most 128 characters, unique case-insensitively
//   - ControlCode is a numeric string of 2-6 digits, unique across barangays
//   - ControlCode is immutable once beneficiary IDs have been issued under it;
//     the store does not enforce this, reassignment goes through the allocator
type Barangay struct {
	ID          id.BarangayID `json:"id"`
	Name        string        `json:"name"`
	ControlCode string        `json:"control_code"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewBarangay validates inputs and constructs a Barangay.
func NewBarangay(barangayID id.BarangayID, name, controlCode string, now time.Time) (*Barangay, error) {
	name = strings.TrimSpace(name)
	controlCode = strings.TrimSpace(controlCode)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "barangay name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "barangay name must be 128 characters or less")
	}
	if !controlCodePattern.MatchString(controlCode) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "barangay control code must be 2-6 digits")
	}

	return &Barangay{
		ID:          barangayID,
		Name:        name,
		ControlCode: controlCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
