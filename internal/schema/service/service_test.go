package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"lingap/internal/audit"
	"lingap/internal/schema/models"
	"lingap/internal/schema/store"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
)

// fakeCache records cache traffic so the read-through behavior is observable.
type fakeCache struct {
	fields       []*models.FieldDefinition
	hits, misses int
	invalidated  int
}

func (c *fakeCache) Get(context.Context) ([]*models.FieldDefinition, bool) {
	if c.fields == nil {
		c.misses++
		return nil, false
	}
	c.hits++
	return c.fields, true
}

func (c *fakeCache) Set(_ context.Context, fields []*models.FieldDefinition) {
	c.fields = fields
}

func (c *fakeCache) Invalidate(context.Context) {
	c.fields = nil
	c.invalidated++
}

type SchemaServiceSuite struct {
	suite.Suite
	service  *Service
	cache    *fakeCache
	auditLog *audit.InMemoryStore
}

func TestSchemaServiceSuite(t *testing.T) {
	suite.Run(t, new(SchemaServiceSuite))
}

func (s *SchemaServiceSuite) SetupTest() {
	s.cache = &fakeCache{}
	s.auditLog = audit.NewInMemoryStore()
	s.service = New(store.NewInMemory(),
		WithFieldCache(s.cache),
		WithAuditPublisher(audit.NewPublisher(s.auditLog)))
}

func (s *SchemaServiceSuite) addField(input AddFieldInput) *models.FieldDefinition {
	def, err := s.service.AddField(context.Background(), input)
	s.Require().NoError(err)
	return def
}

func (s *SchemaServiceSuite) TestAddField() {
	ctx := context.Background()

	s.Run("display order defaults to end of group", func() {
		first := s.addField(AddFieldInput{Name: "occupation", Label: "Occupation", Kind: models.FieldText, GroupKey: "work"})
		second := s.addField(AddFieldInput{Name: "employer", Label: "Employer", Kind: models.FieldText, GroupKey: "work"})
		s.Equal(1, first.DisplayOrder)
		s.Equal(2, second.DisplayOrder)
	})

	s.Run("duplicate name conflicts case-insensitively", func() {
		_, err := s.service.AddField(ctx, AddFieldInput{
			Name: "Occupation", Label: "Different Label", Kind: models.FieldText, GroupKey: "work"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("duplicate label conflicts", func() {
		_, err := s.service.AddField(ctx, AddFieldInput{
			Name: "job", Label: "occupation", Kind: models.FieldText, GroupKey: "work"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("reserved identifier name rejected", func() {
		_, err := s.service.AddField(ctx, AddFieldInput{
			Name: attrs.KeyIDNumber, Label: "ID Number", Kind: models.FieldText, GroupKey: "core"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("choice field without options rejected", func() {
		_, err := s.service.AddField(ctx, AddFieldInput{
			Name: "civilStatus", Label: "Civil Status", Kind: models.FieldSingleChoice, GroupKey: "core"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("text field with options rejected", func() {
		_, err := s.service.AddField(ctx, AddFieldInput{
			Name: "notes", Label: "Notes", Kind: models.FieldText, GroupKey: "core",
			Options: []string{"a"}})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("write invalidates the field cache", func() {
		s.Positive(s.cache.invalidated)
	})

	s.Run("successful writes leave an audit trail", func() {
		events, err := s.auditLog.ListRecent(ctx, 10)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionFieldAdded, events[0].Action)
	})
}

func (s *SchemaServiceSuite) TestListFieldsReadThrough() {
	ctx := context.Background()
	s.addField(AddFieldInput{Name: "gender", Label: "Gender", Kind: models.FieldSingleChoice,
		Options: []string{"female", "male"}, GroupKey: "core"})

	first, err := s.service.ListFields(ctx)
	s.Require().NoError(err)
	s.Len(first, 1)
	s.Equal(1, s.cache.misses, "first read misses and fills")

	_, err = s.service.ListFields(ctx)
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits, "second read served from cache")
}

func (s *SchemaServiceSuite) TestRemoveField() {
	ctx := context.Background()
	def := s.addField(AddFieldInput{Name: "gender", Label: "Gender", Kind: models.FieldText, GroupKey: "core"})

	s.Run("unknown field reports not found", func() {
		err := s.service.RemoveField(ctx, id.NewFieldID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("removal drops the field from the schema", func() {
		s.Require().NoError(s.service.RemoveField(ctx, def.ID))
		fields, err := s.service.ListFields(ctx)
		s.Require().NoError(err)
		s.Empty(fields)
	})
}

func (s *SchemaServiceSuite) TestValidateAttributes() {
	ctx := context.Background()
	s.addField(AddFieldInput{Name: "gender", Label: "Gender", Kind: models.FieldSingleChoice,
		Options: []string{"female", "male"}, Required: true, GroupKey: "core"})
	s.addField(AddFieldInput{Name: "monthlyIncome", Label: "Monthly Income", Kind: models.FieldNumber, GroupKey: "work"})
	s.addField(AddFieldInput{Name: "languages", Label: "Languages", Kind: models.FieldMultiChoice,
		Options: []string{"Tagalog", "Cebuano"}, GroupKey: "core"})

	s.Run("valid map passes", func() {
		err := s.service.ValidateAttributes(ctx, attrs.Map{
			"gender":        attrs.NewChoice("female"),
			"monthlyIncome": attrs.NewNumber(4500),
			"languages":     attrs.NewChoices([]string{"Tagalog"}),
		}, true)
		s.NoError(err)
	})

	s.Run("unknown key rejected", func() {
		err := s.service.ValidateAttributes(ctx, attrs.Map{
			"gender":  attrs.NewChoice("female"),
			"citizen": attrs.NewText("yes"),
		}, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("reserved identifier key always passes", func() {
		err := s.service.ValidateAttributes(ctx, attrs.Map{
			attrs.KeyIDNumber: attrs.NewText("01001"),
		}, false)
		s.NoError(err)
	})

	s.Run("kind mismatch rejected", func() {
		err := s.service.ValidateAttributes(ctx, attrs.Map{
			"monthlyIncome": attrs.NewText("a lot"),
		}, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown choice option rejected", func() {
		err := s.service.ValidateAttributes(ctx, attrs.Map{
			"gender": attrs.NewChoice("other"),
		}, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		err = s.service.ValidateAttributes(ctx, attrs.Map{
			"languages": attrs.NewChoices([]string{"Tagalog", "Klingon"}),
		}, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing required field rejected only when required", func() {
		m := attrs.Map{"monthlyIncome": attrs.NewNumber(4500)}

		err := s.service.ValidateAttributes(ctx, m, true)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "creates require required fields")

		s.NoError(s.service.ValidateAttributes(ctx, m, false), "updates validate only what was submitted")
	})
}

func (s *SchemaServiceSuite) TestGroups() {
	ctx := context.Background()

	s.Run("blank group rejected", func() {
		err := s.service.SaveGroup(ctx, models.FieldGroup{Key: "", Label: "Core"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("groups list in display order", func() {
		s.Require().NoError(s.service.SaveGroup(ctx, models.FieldGroup{Key: "work", Label: "Livelihood", DisplayOrder: 2}))
		s.Require().NoError(s.service.SaveGroup(ctx, models.FieldGroup{Key: "core", Label: "Personal", DisplayOrder: 1}))

		groups, err := s.service.ListGroups(ctx)
		s.Require().NoError(err)
		s.Require().Len(groups, 2)
		s.Equal("core", groups[0].Key)
	})

	s.Run("save is an upsert", func() {
		s.Require().NoError(s.service.SaveGroup(ctx, models.FieldGroup{Key: "core", Label: "Personal Details", DisplayOrder: 1}))
		groups, err := s.service.ListGroups(ctx)
		s.Require().NoError(err)
		s.Equal("Personal Details", groups[0].Label)
	})
}
