package beneficiary

import (
	"context"
	"sort"
	"strings"
	"sync"

	barangaymodels "lingap/internal/barangay/models"
	"lingap/internal/registry/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// BarangayNamer resolves subdivision names for free-text search. The memory
// store takes it as a dependency where the Postgres store joins the table.
type BarangayNamer interface {
	FindByID(ctx context.Context, barangayID id.BarangayID) (*barangaymodels.Barangay, error)
}

// InMemory keeps beneficiary records in a map. It enforces the same
// idNumber uniqueness contract as the Postgres store's unique index, so the
// allocator's optimistic retry path is exercised identically in tests.
type InMemory struct {
	mu        sync.RWMutex
	records   map[id.BeneficiaryID]*models.BeneficiaryRecord
	barangays BarangayNamer
}

func NewInMemory(barangays BarangayNamer) *InMemory {
	return &InMemory{
		records:   make(map[id.BeneficiaryID]*models.BeneficiaryRecord),
		barangays: barangays,
	}
}

// Create inserts the record. An idNumber already held by a non-deleted
// record is rejected with ErrDuplicateIDNumber - the authoritative backstop
// behind the allocator's optimistic check.
func (s *InMemory) Create(_ context.Context, record *models.BeneficiaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idNumberTakenLocked(record.IDNumber(), record.ID) {
		return sentinel.ErrDuplicateIDNumber
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Update replaces the stored record, re-checking idNumber uniqueness.
func (s *InMemory) Update(_ context.Context, record *models.BeneficiaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.idNumberTakenLocked(record.IDNumber(), record.ID) {
		return sentinel.ErrDuplicateIDNumber
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.BeneficiaryID) (*models.BeneficiaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// Delete removes the record permanently.
func (s *InMemory) Delete(_ context.Context, recordID id.BeneficiaryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, recordID)
	return nil
}

// IDNumberInUse reports whether a non-deleted record holds the ID number.
func (s *InMemory) IDNumberInUse(_ context.Context, idNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idNumberTakenLocked(idNumber, id.BeneficiaryID{}), nil
}

func (s *InMemory) idNumberTakenLocked(idNumber string, exclude id.BeneficiaryID) bool {
	if idNumber == "" {
		return false
	}
	for _, existing := range s.records {
		if existing.ID == exclude || existing.Deleted {
			continue
		}
		if existing.IDNumber() == idNumber {
			return true
		}
	}
	return false
}

// HasDuplicate matches identity case-insensitively and trimmed against
// non-deleted records. A nil birthdate matches only records that also lack
// one: missing birthdate is its own equivalence class, never a wildcard.
func (s *InMemory) HasDuplicate(_ context.Context, firstName, lastName string, birthdate *string, exclude id.BeneficiaryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantFirst := normalizeName(firstName)
	wantLast := normalizeName(lastName)

	for _, existing := range s.records {
		if existing.ID == exclude || existing.Deleted {
			continue
		}
		if normalizeName(existing.FirstName) != wantFirst || normalizeName(existing.LastName) != wantLast {
			continue
		}
		existingBirthdate, hasBirthdate := existing.Birthdate()
		if birthdate == nil {
			if !hasBirthdate {
				return true, nil
			}
			continue
		}
		if hasBirthdate && existingBirthdate.Format(attrs.DateLayout) == *birthdate {
			return true, nil
		}
	}
	return false, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// List evaluates the full filter predicate in memory, counts the matches,
// then slices the requested page, so Total and the page always agree.
func (s *InMemory) List(ctx context.Context, filter models.ListFilter, knownProviders []string) (*models.PageResult, error) {
	filter = filter.Normalize()
	now := requestcontext.Now(ctx)

	s.mu.RLock()
	var matched []*models.BeneficiaryRecord
	for _, record := range s.records {
		name := s.barangayName(ctx, record.BarangayID)
		if matchesFilter(record, filter, knownProviders, name, now) {
			matched = append(matched, record.Clone())
		}
	}
	s.mu.RUnlock()

	s.sortRecords(ctx, matched, filter)

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return models.NewPageResult(matched[start:end], total, filter.Limit), nil
}

func (s *InMemory) barangayName(ctx context.Context, barangayID id.BarangayID) string {
	if s.barangays == nil {
		return ""
	}
	b, err := s.barangays.FindByID(ctx, barangayID)
	if err != nil {
		return ""
	}
	return b.Name
}

func (s *InMemory) sortRecords(ctx context.Context, records []*models.BeneficiaryRecord, filter models.ListFilter) {
	key := func(r *models.BeneficiaryRecord) string {
		switch filter.SortBy {
		case "firstName":
			return normalizeName(r.FirstName)
		case "idNumber":
			return r.IDNumber()
		case "barangay":
			return strings.ToLower(s.barangayName(ctx, r.BarangayID))
		case "createdAt":
			return r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000")
		default:
			return normalizeName(r.LastName)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		less := key(records[i]) < key(records[j])
		if filter.SortDesc {
			return !less && key(records[i]) != key(records[j])
		}
		return less
	})
}
