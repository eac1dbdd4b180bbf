package models

import (
	"strings"
	"time"

	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
)

// Well-known attribute keys the registry itself reads. They are ordinary
// schema fields from the administrator's point of view; the registry only
// relies on their names for derived fields, duplicate checks, and filters.
const (
	KeyBirthdate     = "birthdate"
	KeyGender        = "gender"
	KeyHealthRemark  = "healthRemark"
	KeyPensionSource = "pensionSource"
	KeyBooklet       = "booklet"
	KeyUTP           = "utp"
	KeyTransferee    = "transferee"
	KeyPDL           = "pdl"
	KeyPWD           = "pwd"
	KeyIPAffiliation = "ipAffiliation"
)

// State is the reconstructed lifecycle enum over the legacy flag triple.
type State string

const (
	StateApplied     State = "applied"
	StateRegistered  State = "registered"
	StateSoftDeleted State = "soft_deleted"
	StateArchived    State = "archived"
)

// BeneficiaryRecord is one registrant in the social-program registry.
//
// Invariants:
//   - FirstName and LastName are non-empty
//   - Attribute keys are drawn from the schema current at write time,
//     plus the reserved idNumber key owned by the allocator
//   - Lifecycle flags never conflict: "active" means registered and not
//     deleted and not archived; "pending" means not registered and not
//     deleted; "archived" means archived and not deleted
//   - Archived implies the record was registered first
//   - The idNumber attribute is unique among non-deleted records and its
//     prefix equals the owning barangay's control code
type BeneficiaryRecord struct {
	ID         id.BeneficiaryID `json:"id"`
	FirstName  string           `json:"first_name"`
	LastName   string           `json:"last_name"`
	MiddleName string           `json:"middle_name,omitempty"`
	Suffix     string           `json:"suffix,omitempty"`
	BarangayID id.BarangayID    `json:"barangay_id"`

	Attributes attrs.Map `json:"attributes"`

	DocumentURL        string `json:"document_url,omitempty"`
	DocumentType       string `json:"document_type,omitempty"`
	DocumentExternalID string `json:"-"`
	PhotoURL           string `json:"photo_url,omitempty"`
	PhotoExternalID    string `json:"-"`

	Registered bool       `json:"registered"`
	Deleted    bool       `json:"deleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	Archived      bool       `json:"archived"`
	ArchiveReason string     `json:"archive_reason,omitempty"`
	ArchiveDate   *time.Time `json:"archive_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBeneficiaryRecord validates identity fields and constructs a record in
// the applied (pending) state.
func NewBeneficiaryRecord(recordID id.BeneficiaryID, firstName, lastName, middleName, suffix string, barangayID id.BarangayID, attributes attrs.Map, now time.Time) (*BeneficiaryRecord, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if firstName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "first name cannot be empty")
	}
	if lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "last name cannot be empty")
	}
	if barangayID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "barangay reference cannot be empty")
	}

	return &BeneficiaryRecord{
		ID:         recordID,
		FirstName:  firstName,
		LastName:   lastName,
		MiddleName: strings.TrimSpace(middleName),
		Suffix:     strings.TrimSpace(suffix),
		BarangayID: barangayID,
		Attributes: attributes.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// State derives the lifecycle state from the flag triple. Deleted wins so a
// soft-deleted record never shows as active or archived.
func (r *BeneficiaryRecord) State() State {
	switch {
	case r.Deleted:
		return StateSoftDeleted
	case r.Archived:
		return StateArchived
	case r.Registered:
		return StateRegistered
	default:
		return StateApplied
	}
}

// IDNumber returns the allocated beneficiary identifier, "" before allocation.
func (r *BeneficiaryRecord) IDNumber() string {
	return r.Attributes.String(attrs.KeyIDNumber)
}

// SetIDNumber writes the reserved identifier attribute.
func (r *BeneficiaryRecord) SetIDNumber(idNumber string) {
	if r.Attributes == nil {
		r.Attributes = attrs.Map{}
	}
	r.Attributes[attrs.KeyIDNumber] = attrs.NewText(idNumber)
}

// Birthdate returns the birthdate attribute, ok=false when the record has
// none. A missing birthdate forms its own duplicate-match class.
func (r *BeneficiaryRecord) Birthdate() (time.Time, bool) {
	return r.Attributes.Date(KeyBirthdate)
}

// Gender is derived from the attribute map, "" when absent.
func (r *BeneficiaryRecord) Gender() string {
	return r.Attributes.String(KeyGender)
}

// Age derives the beneficiary's age at the given time, -1 without a birthdate.
func (r *BeneficiaryRecord) Age(now time.Time) int {
	birthdate, ok := r.Birthdate()
	if !ok {
		return -1
	}
	age := now.Year() - birthdate.Year()
	if now.YearDay() < birthdate.YearDay() {
		age--
	}
	if age < 0 {
		return -1
	}
	return age
}

// FullName joins the identity fields for search and audit detail text.
func (r *BeneficiaryRecord) FullName() string {
	parts := []string{r.FirstName}
	if r.MiddleName != "" {
		parts = append(parts, r.MiddleName)
	}
	parts = append(parts, r.LastName)
	if r.Suffix != "" {
		parts = append(parts, r.Suffix)
	}
	return strings.Join(parts, " ")
}

// Clone returns a deep copy; stores hand out clones so callers never mutate
// shared state.
func (r *BeneficiaryRecord) Clone() *BeneficiaryRecord {
	clone := *r
	clone.Attributes = r.Attributes.Clone()
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		clone.DeletedAt = &t
	}
	if r.ArchiveDate != nil {
		t := *r.ArchiveDate
		clone.ArchiveDate = &t
	}
	return &clone
}
