package models

import (
	"strconv"
	"strings"

	id "lingap/pkg/domain"
)

// Scope selects which lifecycle slice a listing covers.
type Scope string

const (
	// ScopeActive: registered, not deleted, not archived.
	ScopeActive Scope = "active"
	// ScopePending: not yet registered, not deleted.
	ScopePending Scope = "pending"
	// ScopeArchived: archived, not deleted.
	ScopeArchived Scope = "archived"
	// ScopeDeleted: soft-deleted records awaiting restore or purge.
	ScopeDeleted Scope = "deleted"
)

// OthersProvider is the negative-match bucket: beneficiaries whose pension
// source is set but matches none of the known providers.
const OthersProvider = "Others"

const (
	DefaultLimit = 25
	MaxLimit     = 200

	DefaultSortColumn = "lastName"
)

// sortColumns is the allow-list; anything else silently falls back to the
// default so callers cannot probe storage internals through sort input.
var sortColumns = map[string]struct{}{
	"lastName":  {},
	"firstName": {},
	"createdAt": {},
	"idNumber":  {},
	"barangay":  {},
}

// ListFilter carries every predicate dimension of a beneficiary listing.
// Zero values mean "no constraint" for the optional dimensions.
type ListFilter struct {
	Scope Scope

	// Search matches identity fields, barangay name, and idNumber,
	// case-insensitive substring.
	Search string

	// BarangayID filters by exact subdivision, nil for all.
	BarangayID id.BarangayID

	Gender       string
	HealthRemark string

	// PensionProvider is a provider substring, or OthersProvider for the
	// negative-match bucket over the known provider list.
	PensionProvider string

	// AgeRange is inclusive, "60-69" or open-ended "90+". "" for all.
	AgeRange string

	// Report flags: require the attribute-map flag to read true.
	Booklet    bool
	UTP        bool
	Transferee bool
	PDL        bool
	PWD        bool
	IPMember   bool

	SortBy   string
	SortDesc bool

	Page  int
	Limit int
}

// Normalize clamps pagination, defaults the scope, and applies the sort
// allow-list fallback. Stores call it first so both backends agree.
func (f ListFilter) Normalize() ListFilter {
	if f.Scope == "" {
		f.Scope = ScopeActive
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = DefaultSortColumn
		f.SortDesc = false
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset converts page/limit to a row offset.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// AgeBounds parses the age range. max is -1 for an open "+" upper bound.
// ok is false when the range is absent or malformed (malformed ranges are
// ignored rather than erroring, matching the filter's lenient contract).
func (f ListFilter) AgeBounds() (min, max int, ok bool) {
	raw := strings.TrimSpace(f.AgeRange)
	if raw == "" {
		return 0, 0, false
	}
	if strings.HasSuffix(raw, "+") {
		n, err := strconv.Atoi(strings.TrimSuffix(raw, "+"))
		if err != nil || n < 0 {
			return 0, 0, false
		}
		return n, -1, true
	}
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errLo != nil || errHi != nil || lo < 0 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// PageResult is one page of a listing. Total counts every record satisfying the
// identical predicate, so varying page/limit never changes it.
type PageResult struct {
	Items      []*BeneficiaryRecord `json:"items"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// NewPageResult computes TotalPages from the filter's limit.
func NewPageResult(items []*BeneficiaryRecord, total, limit int) *PageResult {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	if items == nil {
		items = []*BeneficiaryRecord{}
	}
	return &PageResult{Items: items, Total: total, TotalPages: totalPages}
}
