package store

import (
	"context"
	"time"

	"lingap/internal/registry/models"
	schemamodels "lingap/internal/schema/models"
	id "lingap/pkg/domain"
)

// seedTarget is the slice of the store the seeder needs. Both InMemory and
// Postgres satisfy it.
type seedTarget interface {
	ListFields(ctx context.Context) ([]*schemamodels.FieldDefinition, error)
	CreateFieldIfAvailable(ctx context.Context, def *schemamodels.FieldDefinition) error
	SaveGroup(ctx context.Context, group *schemamodels.FieldGroup) error
}

type seedField struct {
	name     string
	label    string
	kind     schemamodels.FieldKind
	options  []string
	required bool
	group    string
	order    int
}

// SeedBaseline installs the intake-form groups and fields a fresh deployment
// starts from. The registry reads several of these by name for derived fields
// and report filters; administrators can extend the set afterwards. A store
// that already holds fields is left untouched.
func SeedBaseline(ctx context.Context, target seedTarget) error {
	existing, err := target.ListFields(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	groups := []*schemamodels.FieldGroup{
		{Key: "identity", Label: "Identity", DisplayOrder: 1},
		{Key: "health", Label: "Health", DisplayOrder: 2},
		{Key: "economic", Label: "Economic Status", DisplayOrder: 3},
		{Key: "status", Label: "Program Status", DisplayOrder: 4},
	}
	for _, g := range groups {
		if err := target.SaveGroup(ctx, g); err != nil {
			return err
		}
	}

	fields := []seedField{
		{name: models.KeyBirthdate, label: "Birthdate", kind: schemamodels.FieldDate, required: true, group: "identity", order: 1},
		{name: models.KeyGender, label: "Gender", kind: schemamodels.FieldSingleChoice, options: []string{"female", "male"}, required: true, group: "identity", order: 2},
		{name: "civilStatus", label: "Civil Status", kind: schemamodels.FieldSingleChoice, options: []string{"single", "married", "widowed", "separated"}, group: "identity", order: 3},
		{name: "contactNumber", label: "Contact Number", kind: schemamodels.FieldText, group: "identity", order: 4},
		{name: models.KeyHealthRemark, label: "Health Remark", kind: schemamodels.FieldText, group: "health", order: 1},
		{name: models.KeyPWD, label: "Person with Disability", kind: schemamodels.FieldText, group: "health", order: 2},
		{name: models.KeyPensionSource, label: "Pension Source", kind: schemamodels.FieldText, group: "economic", order: 1},
		{name: models.KeyBooklet, label: "Purchase Booklet Issued", kind: schemamodels.FieldText, group: "status", order: 1},
		{name: models.KeyUTP, label: "UTP", kind: schemamodels.FieldText, group: "status", order: 2},
		{name: models.KeyTransferee, label: "Transferee", kind: schemamodels.FieldText, group: "status", order: 3},
		{name: models.KeyPDL, label: "Person Deprived of Liberty", kind: schemamodels.FieldText, group: "status", order: 4},
		{name: models.KeyIPAffiliation, label: "Indigenous People Affiliation", kind: schemamodels.FieldText, group: "status", order: 5},
	}
	now := time.Now()
	for _, f := range fields {
		def, err := schemamodels.NewFieldDefinition(id.NewFieldID(),
			f.name, f.label, f.kind, f.options, f.required, f.group, f.order, now)
		if err != nil {
			return err
		}
		if err := target.CreateFieldIfAvailable(ctx, def); err != nil {
			return err
		}
	}
	return nil
}
