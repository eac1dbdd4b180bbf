// Package domain provides typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-entity assignment (a BarangayID can never be passed where a
// BeneficiaryID is expected). Parse functions enforce the invariant that
// IDs crossing a trust boundary are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "lingap/pkg/domainerrors"
)

type (
	// BeneficiaryID identifies one beneficiary record.
	BeneficiaryID uuid.UUID

	// BarangayID identifies an administrative subdivision.
	BarangayID uuid.UUID

	// FieldID identifies an administrator-defined intake field.
	FieldID uuid.UUID
)

func (id BeneficiaryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BeneficiaryID) String() string { return uuid.UUID(id).String() }

func (id BarangayID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BarangayID) String() string { return uuid.UUID(id).String() }

func (id FieldID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id FieldID) String() string { return uuid.UUID(id).String() }

// NewBeneficiaryID allocates a fresh random beneficiary ID.
func NewBeneficiaryID() BeneficiaryID { return BeneficiaryID(uuid.New()) }

// NewBarangayID allocates a fresh random barangay ID.
func NewBarangayID() BarangayID { return BarangayID(uuid.New()) }

// NewFieldID allocates a fresh random field ID.
func NewFieldID() FieldID { return FieldID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is empty", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is the nil UUID", kind)
	}
	return parsed, nil
}

// ParseBeneficiaryID validates and parses a beneficiary ID string.
func ParseBeneficiaryID(raw string) (BeneficiaryID, error) {
	parsed, err := parseUUID(raw, "beneficiary")
	if err != nil {
		return BeneficiaryID{}, err
	}
	return BeneficiaryID(parsed), nil
}

// ParseBarangayID validates and parses a barangay ID string.
func ParseBarangayID(raw string) (BarangayID, error) {
	parsed, err := parseUUID(raw, "barangay")
	if err != nil {
		return BarangayID{}, err
	}
	return BarangayID(parsed), nil
}

// ParseFieldID validates and parses a field definition ID string.
func ParseFieldID(raw string) (FieldID, error) {
	parsed, err := parseUUID(raw, "field")
	if err != nil {
		return FieldID{}, err
	}
	return FieldID(parsed), nil
}
