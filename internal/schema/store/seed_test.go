package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingap/internal/registry/models"
	schemamodels "lingap/internal/schema/models"
)

func TestSeedBaseline(t *testing.T) {
	ctx := context.Background()

	t.Run("installs groups and fields on an empty store", func(t *testing.T) {
		target := NewInMemory()
		require.NoError(t, SeedBaseline(ctx, target))

		fields, err := target.ListFields(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, fields)

		byName := make(map[string]*schemamodels.FieldDefinition, len(fields))
		for _, f := range fields {
			byName[f.Name] = f
		}
		require.Contains(t, byName, models.KeyBirthdate)
		assert.Equal(t, schemamodels.FieldDate, byName[models.KeyBirthdate].Kind)
		assert.True(t, byName[models.KeyBirthdate].Required)
		require.Contains(t, byName, models.KeyGender)
		assert.ElementsMatch(t, []string{"female", "male"}, byName[models.KeyGender].Options)
		assert.Contains(t, byName, models.KeyPensionSource)
		assert.Contains(t, byName, models.KeyPWD)

		groups, err := target.ListGroups(ctx)
		require.NoError(t, err)
		assert.Len(t, groups, 4)
		assert.Equal(t, "identity", groups[0].Key)
	})

	t.Run("non-empty store is left untouched", func(t *testing.T) {
		target := NewInMemory()
		require.NoError(t, SeedBaseline(ctx, target))
		before, err := target.ListFields(ctx)
		require.NoError(t, err)

		require.NoError(t, SeedBaseline(ctx, target))
		after, err := target.ListFields(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}
