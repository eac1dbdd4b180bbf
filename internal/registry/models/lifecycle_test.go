package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
)

func newTestRecord(t *testing.T) *BeneficiaryRecord {
	t.Helper()
	record, err := NewBeneficiaryRecord(id.NewBeneficiaryID(),
		"Remedios", "Santos", "", "", id.NewBarangayID(), attrs.Map{}, time.Now())
	require.NoError(t, err)
	return record
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Now()

	t.Run("register is idempotent", func(t *testing.T) {
		r := newTestRecord(t)
		assert.True(t, r.ApplyRegister(now))
		assert.True(t, r.ApplyRegister(now), "second register still reports satisfied")
		assert.Equal(t, StateRegistered, r.State())
	})

	t.Run("deleted record cannot register", func(t *testing.T) {
		r := newTestRecord(t)
		r.ApplySoftDelete(now)
		assert.False(t, r.ApplyRegister(now))
	})

	t.Run("soft delete sets DeletedAt once", func(t *testing.T) {
		r := newTestRecord(t)
		first := now
		assert.True(t, r.ApplySoftDelete(first))
		require.NotNil(t, r.DeletedAt)

		later := now.Add(time.Hour)
		assert.True(t, r.ApplySoftDelete(later), "repeat delete stays satisfied")
		assert.True(t, r.DeletedAt.Equal(first), "repeat delete must not move DeletedAt")
	})

	t.Run("restore requires deleted", func(t *testing.T) {
		r := newTestRecord(t)
		assert.False(t, r.ApplyRestore(now))

		r.ApplySoftDelete(now)
		assert.True(t, r.ApplyRestore(now))
		assert.Nil(t, r.DeletedAt)
		assert.Equal(t, StateApplied, r.State())
	})

	t.Run("restore preserves other flags", func(t *testing.T) {
		r := newTestRecord(t)
		r.ApplyRegister(now)
		r.ApplySoftDelete(now)
		require.True(t, r.ApplyRestore(now))
		assert.Equal(t, StateRegistered, r.State(),
			"restored record returns to its prior visibility")
	})

	t.Run("archive requires registration", func(t *testing.T) {
		r := newTestRecord(t)
		assert.False(t, r.ApplyArchive("deceased", nil, now))

		r.ApplyRegister(now)
		deceased := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
		assert.True(t, r.ApplyArchive("deceased", &deceased, now))
		assert.Equal(t, StateArchived, r.State())
		assert.Equal(t, "deceased", r.ArchiveReason)
		require.NotNil(t, r.ArchiveDate)
		assert.True(t, r.ArchiveDate.Equal(deceased))

		assert.False(t, r.ApplyArchive("again", nil, now), "double archive rejected")
	})

	t.Run("restore archive clears metadata", func(t *testing.T) {
		r := newTestRecord(t)
		assert.False(t, r.ApplyRestoreArchive(now))

		r.ApplyRegister(now)
		r.ApplyArchive("relocated", nil, now)
		assert.True(t, r.ApplyRestoreArchive(now))
		assert.Empty(t, r.ArchiveReason)
		assert.Nil(t, r.ArchiveDate)
		assert.Equal(t, StateRegistered, r.State())
	})

	t.Run("deleted wins over archived in derived state", func(t *testing.T) {
		r := newTestRecord(t)
		r.ApplyRegister(now)
		r.ApplyArchive("deceased", nil, now)
		r.ApplySoftDelete(now)
		assert.Equal(t, StateSoftDeleted, r.State())
	})
}
