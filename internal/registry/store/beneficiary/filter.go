package beneficiary

import (
	"strings"
	"time"

	"lingap/internal/registry/models"
)

// matchesFilter is the in-memory rendition of the listing predicate. The
// Postgres store compiles the same predicate to SQL; the two must agree,
// and the memory store is the reference the query tests pin down.
func matchesFilter(r *models.BeneficiaryRecord, f models.ListFilter, knownProviders []string, barangayName string, now time.Time) bool {
	if !inScope(r, f.Scope) {
		return false
	}
	if !f.BarangayID.IsNil() && r.BarangayID != f.BarangayID {
		return false
	}
	if f.Gender != "" && !strings.EqualFold(r.Gender(), f.Gender) {
		return false
	}
	if f.HealthRemark != "" && !strings.EqualFold(r.Attributes.String(models.KeyHealthRemark), f.HealthRemark) {
		return false
	}
	if f.PensionProvider != "" && !matchesProvider(r.Attributes.String(models.KeyPensionSource), f.PensionProvider, knownProviders) {
		return false
	}
	if min, max, ok := f.AgeBounds(); ok {
		age := r.Age(now)
		if age < min {
			return false
		}
		if max >= 0 && age > max {
			return false
		}
	}
	if f.Booklet && !r.Attributes.Flag(models.KeyBooklet) {
		return false
	}
	if f.UTP && !r.Attributes.Flag(models.KeyUTP) {
		return false
	}
	if f.Transferee && !r.Attributes.Flag(models.KeyTransferee) {
		return false
	}
	if f.PDL && !r.Attributes.Flag(models.KeyPDL) {
		return false
	}
	if f.PWD && !r.Attributes.Flag(models.KeyPWD) {
		return false
	}
	if f.IPMember && !r.Attributes.Flag(models.KeyIPAffiliation) {
		return false
	}
	if f.Search != "" && !matchesSearch(r, f.Search, barangayName) {
		return false
	}
	return true
}

func inScope(r *models.BeneficiaryRecord, scope models.Scope) bool {
	switch scope {
	case models.ScopeDeleted:
		return r.Deleted
	case models.ScopeArchived:
		return r.Archived && !r.Deleted
	case models.ScopePending:
		return !r.Registered && !r.Deleted
	default: // active
		return r.Registered && !r.Deleted && !r.Archived
	}
}

// matchesSearch is substring matching only; relevance ranking is out of
// scope for this core.
func matchesSearch(r *models.BeneficiaryRecord, search, barangayName string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	haystacks := []string{
		r.FirstName, r.MiddleName, r.LastName, r.Suffix,
		r.FullName(), r.IDNumber(), barangayName,
	}
	for _, h := range haystacks {
		if h != "" && strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// matchesProvider implements the substring-or-set provider match. The
// OthersProvider bucket matches records whose pension source is set but
// names none of the known providers.
func matchesProvider(source, wanted string, knownProviders []string) bool {
	source = strings.TrimSpace(source)
	if wanted == models.OthersProvider {
		if source == "" {
			return false
		}
		for _, known := range knownProviders {
			if containsFold(source, known) {
				return false
			}
		}
		return true
	}
	return containsFold(source, wanted)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
