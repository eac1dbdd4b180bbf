//go:build integration

package beneficiary_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	barangaymodels "lingap/internal/barangay/models"
	barangaystore "lingap/internal/barangay/store"
	"lingap/internal/registry/models"
	"lingap/internal/registry/store/beneficiary"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/testutil/containers"
)

type PostgresBeneficiarySuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *beneficiary.Postgres
	barangays *barangaystore.Postgres
	poblacion *barangaymodels.Barangay
	riverside *barangaymodels.Barangay
	now       time.Time
}

func TestPostgresBeneficiarySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBeneficiarySuite))
}

func (s *PostgresBeneficiarySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = beneficiary.NewPostgres(s.postgres.Pool)
	s.barangays = barangaystore.NewPostgres(s.postgres.Pool)
	s.now = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
}

func (s *PostgresBeneficiarySuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "beneficiaries", "barangays")
	s.Require().NoError(err)

	var errB error
	s.poblacion, errB = barangaymodels.NewBarangay(id.NewBarangayID(), "Poblacion", "01", s.now)
	s.Require().NoError(errB)
	s.Require().NoError(s.barangays.CreateIfAvailable(ctx, s.poblacion))

	s.riverside, errB = barangaymodels.NewBarangay(id.NewBarangayID(), "Riverside", "02", s.now)
	s.Require().NoError(errB)
	s.Require().NoError(s.barangays.CreateIfAvailable(ctx, s.riverside))
}

type seedOpt func(*models.BeneficiaryRecord)

func withAttr(key string, v attrs.Value) seedOpt {
	return func(r *models.BeneficiaryRecord) { r.Attributes[key] = v }
}

func withBirthdate(year, month, day int) seedOpt {
	return withAttr(models.KeyBirthdate,
		attrs.NewDate(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)))
}

func (s *PostgresBeneficiarySuite) seed(barangayID id.BarangayID, firstName, lastName, idNumber string, opts ...seedOpt) *models.BeneficiaryRecord {
	s.T().Helper()
	record, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(),
		firstName, lastName, "", "", barangayID, attrs.Map{}, s.now)
	s.Require().NoError(err)
	record.SetIDNumber(idNumber)
	record.Registered = true
	for _, opt := range opts {
		opt(record)
	}
	s.Require().NoError(s.store.Create(context.Background(), record))
	return record
}

func (s *PostgresBeneficiarySuite) TestRoundTrip() {
	ctx := context.Background()
	deceased := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	record := s.seed(s.poblacion.ID, "Maria", "Santos", "01001",
		withBirthdate(1950, 6, 12),
		withAttr(models.KeyGender, attrs.NewChoice("female")),
		withAttr(models.KeyPWD, attrs.NewText("yes")),
		withAttr("dependents", attrs.NewChoices([]string{"Ana", "Ben"})),
		withAttr("monthlyIncome", attrs.NewNumber(4500)),
	)
	record.DocumentURL = "https://media.local/doc-1"
	record.DocumentType = "senior-id"
	record.DocumentExternalID = "doc-ext-1"
	record.PhotoURL = "https://media.local/photo-1"
	record.PhotoExternalID = "photo-ext-1"
	s.Require().True(record.ApplyArchive("deceased", &deceased, s.now))
	s.Require().NoError(s.store.Update(ctx, record))

	got, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)

	s.Equal("Maria", got.FirstName)
	s.Equal("01001", got.IDNumber())
	s.Equal("doc-ext-1", got.DocumentExternalID)
	s.Equal(models.StateArchived, got.State())
	s.Equal("deceased", got.ArchiveReason)
	s.Require().NotNil(got.ArchiveDate)
	s.True(got.ArchiveDate.Equal(deceased))

	birthdate, ok := got.Birthdate()
	s.Require().True(ok)
	s.Equal(1950, birthdate.Year())
	s.Equal("female", got.Attributes.String(models.KeyGender))
	s.True(got.Attributes.Flag(models.KeyPWD))
	s.Equal([]string{"Ana", "Ben"}, got.Attributes["dependents"].Choices)
	s.InDelta(4500, got.Attributes["monthlyIncome"].Number, 0.001)
}

func (s *PostgresBeneficiarySuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewBeneficiaryID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresBeneficiarySuite) TestIDNumberUniqueIndex() {
	ctx := context.Background()
	first := s.seed(s.poblacion.ID, "Jose", "Reyes", "01007")

	s.Run("second insert with same id number is rejected", func() {
		dup, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(),
			"Pedro", "Cruz", "", "", s.poblacion.ID, attrs.Map{}, s.now)
		s.Require().NoError(err)
		dup.SetIDNumber("01007")
		s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrDuplicateIDNumber)
	})

	s.Run("optimistic check sees the holder", func() {
		inUse, err := s.store.IDNumberInUse(ctx, "01007")
		s.Require().NoError(err)
		s.True(inUse)
	})

	s.Run("soft delete releases the number", func() {
		s.Require().True(first.ApplySoftDelete(s.now))
		s.Require().NoError(s.store.Update(ctx, first))

		inUse, err := s.store.IDNumberInUse(ctx, "01007")
		s.Require().NoError(err)
		s.False(inUse)

		dup, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(),
			"Pedro", "Cruz", "", "", s.poblacion.ID, attrs.Map{}, s.now)
		s.Require().NoError(err)
		dup.SetIDNumber("01007")
		s.NoError(s.store.Create(ctx, dup))
	})

	s.Run("update of a missing record reports not found", func() {
		ghost, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(),
			"No", "Body", "", "", s.poblacion.ID, attrs.Map{}, s.now)
		s.Require().NoError(err)
		s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *PostgresBeneficiarySuite) TestHasDuplicate() {
	ctx := context.Background()
	dated := s.seed(s.poblacion.ID, "Lourdes", "Garcia", "01010", withBirthdate(1948, 2, 20))
	s.seed(s.riverside.ID, "Ramon", "Diaz", "02010")

	date := "1948-02-20"
	otherDate := "1948-02-21"

	s.Run("same identity and birthdate matches across barangays", func() {
		dup, err := s.store.HasDuplicate(ctx, "  LOURDES ", "garcia", &date, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.True(dup)
	})

	s.Run("different birthdate does not match", func() {
		dup, err := s.store.HasDuplicate(ctx, "Lourdes", "Garcia", &otherDate, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.False(dup)
	})

	s.Run("nil birthdate matches only undated namesakes", func() {
		dup, err := s.store.HasDuplicate(ctx, "Lourdes", "Garcia", nil, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.False(dup)

		dup, err = s.store.HasDuplicate(ctx, "Ramon", "Diaz", nil, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.True(dup)

		dup, err = s.store.HasDuplicate(ctx, "Ramon", "Diaz", &date, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.False(dup)
	})

	s.Run("excluded record does not match itself", func() {
		dup, err := s.store.HasDuplicate(ctx, "Lourdes", "Garcia", &date, dated.ID)
		s.Require().NoError(err)
		s.False(dup)
	})

	s.Run("soft-deleted records are out of scope", func() {
		s.Require().True(dated.ApplySoftDelete(s.now))
		s.Require().NoError(s.store.Update(ctx, dated))

		dup, err := s.store.HasDuplicate(ctx, "Lourdes", "Garcia", &date, id.NewBeneficiaryID())
		s.Require().NoError(err)
		s.False(dup)
	})
}

func (s *PostgresBeneficiarySuite) TestListFilters() {
	ctx := context.Background()
	providers := []string{"SSS", "GSIS", "PVAO"}

	s.seed(s.poblacion.ID, "Aurora", "Abad", "01001",
		withBirthdate(1961, 5, 1),
		withAttr(models.KeyGender, attrs.NewChoice("female")),
		withAttr(models.KeyPensionSource, attrs.NewText("SSS Monthly")),
	)
	s.seed(s.poblacion.ID, "Benigno", "Bautista", "01002",
		withBirthdate(1934, 1, 15),
		withAttr(models.KeyGender, attrs.NewChoice("male")),
		withAttr(models.KeyPensionSource, attrs.NewText("Barangay fund")),
		withAttr(models.KeyPWD, attrs.NewText("yes")),
	)
	s.seed(s.riverside.ID, "Corazon", "Castro", "02001",
		withAttr(models.KeyGender, attrs.NewChoice("female")),
	)
	pending, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(),
		"Diego", "Dizon", "", "", s.riverside.ID, attrs.Map{}, s.now)
	s.Require().NoError(err)
	pending.SetIDNumber("02002")
	s.Require().NoError(s.store.Create(ctx, pending))

	s.Run("default scope counts registered live records", func() {
		page, err := s.store.List(ctx, models.ListFilter{}, providers)
		s.Require().NoError(err)
		s.Equal(3, page.Total)
	})

	s.Run("pending scope", func() {
		page, err := s.store.List(ctx, models.ListFilter{Scope: models.ScopePending}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Diego", page.Items[0].FirstName)
	})

	s.Run("barangay filter", func() {
		page, err := s.store.List(ctx, models.ListFilter{BarangayID: s.riverside.ID}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Corazon", page.Items[0].FirstName)
	})

	s.Run("gender filter", func() {
		page, err := s.store.List(ctx, models.ListFilter{Gender: "Female"}, providers)
		s.Require().NoError(err)
		s.Equal(2, page.Total)
	})

	s.Run("open-ended age bucket", func() {
		page, err := s.store.List(ctx, models.ListFilter{AgeRange: "90+"}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Benigno", page.Items[0].FirstName)
	})

	s.Run("age bucket skips records without birthdate", func() {
		page, err := s.store.List(ctx, models.ListFilter{AgeRange: "60-69"}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Aurora", page.Items[0].FirstName)
	})

	s.Run("known provider substring", func() {
		page, err := s.store.List(ctx, models.ListFilter{PensionProvider: "SSS"}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Aurora", page.Items[0].FirstName)
	})

	s.Run("others bucket excludes every known provider", func() {
		page, err := s.store.List(ctx, models.ListFilter{PensionProvider: models.OthersProvider}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Benigno", page.Items[0].FirstName)
	})

	s.Run("pwd flag", func() {
		page, err := s.store.List(ctx, models.ListFilter{PWD: true}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Benigno", page.Items[0].FirstName)
	})

	s.Run("search spans names, barangay, and id number", func() {
		page, err := s.store.List(ctx, models.ListFilter{Search: "nowhere"}, providers)
		s.Require().NoError(err)
		s.Equal(0, page.Total)

		page, err = s.store.List(ctx, models.ListFilter{Search: "riverside"}, providers)
		s.Require().NoError(err)
		s.Equal(1, page.Total)

		page, err = s.store.List(ctx, models.ListFilter{Search: "01002"}, providers)
		s.Require().NoError(err)
		s.Require().Equal(1, page.Total)
		s.Equal("Benigno", page.Items[0].FirstName)
	})
}

func (s *PostgresBeneficiarySuite) TestListSortAndPagination() {
	ctx := context.Background()
	for i, name := range []string{"anders", "Borja", "CRUZ", "dela Pena", "Estrada"} {
		s.seed(s.poblacion.ID, "Given", name, fmt.Sprintf("010%02d", i+1))
	}

	s.Run("case-insensitive sort with stable total across pages", func() {
		first, err := s.store.List(ctx, models.ListFilter{Limit: 2, Page: 1}, nil)
		s.Require().NoError(err)
		s.Equal(5, first.Total)
		s.Equal(3, first.TotalPages)
		s.Require().Len(first.Items, 2)
		s.Equal("anders", first.Items[0].LastName)
		s.Equal("Borja", first.Items[1].LastName)

		last, err := s.store.List(ctx, models.ListFilter{Limit: 2, Page: 3}, nil)
		s.Require().NoError(err)
		s.Equal(5, last.Total)
		s.Require().Len(last.Items, 1)
		s.Equal("Estrada", last.Items[0].LastName)
	})

	s.Run("descending id number", func() {
		page, err := s.store.List(ctx, models.ListFilter{SortBy: "idNumber", SortDesc: true, Limit: 1}, nil)
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1)
		s.Equal("01005", page.Items[0].IDNumber())
	})

	s.Run("past the end is empty, total intact", func() {
		page, err := s.store.List(ctx, models.ListFilter{Limit: 2, Page: 9}, nil)
		s.Require().NoError(err)
		s.Equal(5, page.Total)
		s.Empty(page.Items)
	})
}

func (s *PostgresBeneficiarySuite) TestDelete() {
	ctx := context.Background()
	record := s.seed(s.poblacion.ID, "Felipe", "Flores", "01050")

	s.Require().NoError(s.store.Delete(ctx, record.ID))
	_, err := s.store.FindByID(ctx, record.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, record.ID), sentinel.ErrNotFound)
}
