package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lingap/internal/audit"
	"lingap/internal/schema/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// Store is the persistence contract for the intake schema.
type Store interface {
	CreateFieldIfAvailable(ctx context.Context, def *models.FieldDefinition) error
	DeleteField(ctx context.Context, fieldID id.FieldID) error
	ListFields(ctx context.Context) ([]*models.FieldDefinition, error)
	NextDisplayOrder(ctx context.Context, groupKey string) (int, error)
	SaveGroup(ctx context.Context, group *models.FieldGroup) error
	ListGroups(ctx context.Context) ([]*models.FieldGroup, error)
}

// FieldCache is an optional read-through cache for the field list.
type FieldCache interface {
	Get(ctx context.Context) ([]*models.FieldDefinition, bool)
	Set(ctx context.Context, fields []*models.FieldDefinition)
	Invalidate(ctx context.Context)
}

// AddFieldInput carries administrator input for a new intake field.
// DisplayOrder zero means "append to the group".
type AddFieldInput struct {
	Name         string
	Label        string
	Kind         models.FieldKind
	Options      []string
	Required     bool
	GroupKey     string
	DisplayOrder int
}

// AuditPublisher receives structured audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the administrator-defined intake schema.
type Service struct {
	store          Store
	cache          FieldCache
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithFieldCache attaches a cache for the field list. Nil caches are ignored.
func WithFieldCache(cache FieldCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListFields returns the current ordered schema.
func (s *Service) ListFields(ctx context.Context) ([]*models.FieldDefinition, error) {
	if s.cache != nil {
		if fields, ok := s.cache.Get(ctx); ok {
			return fields, nil
		}
	}
	fields, err := s.store.ListFields(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list fields")
	}
	if s.cache != nil {
		s.cache.Set(ctx, fields)
	}
	return fields, nil
}

// ListGroups returns the intake-form sections in display order.
func (s *Service) ListGroups(ctx context.Context) ([]*models.FieldGroup, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list groups")
	}
	return groups, nil
}

// AddField creates a new intake field. Duplicate names or labels fail with
// CodeConflict; display order defaults to the end of the group.
func (s *Service) AddField(ctx context.Context, input AddFieldInput) (*models.FieldDefinition, error) {
	order := input.DisplayOrder
	if order <= 0 {
		next, err := s.store.NextDisplayOrder(ctx, input.GroupKey)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign display order")
		}
		order = next
	}

	def, err := models.NewFieldDefinition(id.NewFieldID(), input.Name, input.Label, input.Kind,
		input.Options, input.Required, input.GroupKey, order, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateFieldIfAvailable(ctx, def); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "field name and label must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create field")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.emitAudit(ctx, audit.ActionFieldAdded, fmt.Sprintf("added intake field %s (%s)", def.Name, def.Kind))
	s.logger.InfoContext(ctx, "intake field added", "field", def.Name, "group", def.GroupKey)
	return def, nil
}

// RemoveField deletes a field definition. Attributes already stored on
// records under this field's name are left untouched; they simply stop
// participating in current-schema validation.
func (s *Service) RemoveField(ctx context.Context, fieldID id.FieldID) error {
	if err := s.store.DeleteField(ctx, fieldID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "field not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove field")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.emitAudit(ctx, audit.ActionFieldRemoved, fmt.Sprintf("removed intake field %s", fieldID.String()))
	s.logger.InfoContext(ctx, "intake field removed", "field_id", fieldID.String())
	return nil
}

// emitAudit is best-effort: a failed append is logged, never propagated.
func (s *Service) emitAudit(ctx context.Context, action audit.Action, detail string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		ActorID:    requestcontext.ActorID(ctx),
		ActorLabel: requestcontext.ActorLabel(ctx),
		ActorRole:  requestcontext.ActorRole(ctx),
		Action:     action,
		Detail:     detail,
		OriginIP:   requestcontext.ClientIP(ctx),
		RequestID:  requestcontext.RequestID(ctx),
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}

// SaveGroup inserts or updates an intake-form section.
func (s *Service) SaveGroup(ctx context.Context, group models.FieldGroup) error {
	if group.Key == "" || group.Label == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "group key and label cannot be empty")
	}
	if err := s.store.SaveGroup(ctx, &group); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save group")
	}
	return nil
}

// ValidateAttributes checks an attribute map against the current schema.
// Unknown keys (other than the reserved identifier) are rejected; typed
// values must match their field kind; choice values must come from the
// option set. With requireAll set, required fields must be present -
// creates use that, updates validate only what was submitted.
//
// Attributes stored under since-removed fields are not re-validated here:
// validation sees only the submitted map, which is how orphaned attributes
// survive schema edits.
func (s *Service) ValidateAttributes(ctx context.Context, m attrs.Map, requireAll bool) error {
	fields, err := s.ListFields(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]*models.FieldDefinition, len(fields))
	for _, def := range fields {
		byName[def.Name] = def
	}

	for key, value := range m {
		if key == attrs.KeyIDNumber {
			continue
		}
		def, ok := byName[key]
		if !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "attribute %q is not in the current schema", key)
		}
		wantKind, _ := def.Kind.ValueKind()
		if value.Kind != wantKind {
			return dErrors.Newf(dErrors.CodeInvalidInput, "attribute %q must be %s, got %s", key, wantKind, value.Kind)
		}
		switch value.Kind {
		case attrs.KindChoice:
			if !def.HasOption(value.Choice) {
				return dErrors.Newf(dErrors.CodeInvalidInput, "attribute %q has no option %q", key, value.Choice)
			}
		case attrs.KindChoices:
			for _, choice := range value.Choices {
				if !def.HasOption(choice) {
					return dErrors.Newf(dErrors.CodeInvalidInput, "attribute %q has no option %q", key, choice)
				}
			}
		}
	}

	if requireAll {
		for _, def := range fields {
			if !def.Required {
				continue
			}
			if _, ok := m[def.Name]; !ok {
				return dErrors.Newf(dErrors.CodeInvalidInput, "required attribute %q is missing", def.Name)
			}
		}
	}
	return nil
}
