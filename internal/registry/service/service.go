package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lingap/internal/audit"
	barangaymodels "lingap/internal/barangay/models"
	"lingap/internal/media"
	"lingap/internal/registry/allocator"
	"lingap/internal/registry/metrics"
	"lingap/internal/registry/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// identifierAttempts bounds how often a create or update retries allocation
// after the store's uniqueness index rejects an optimistically drawn
// idNumber. Collisions at this level need both an allocator race and an
// unlucky re-draw, so a handful of retries is plenty.
const identifierAttempts = 3

// BeneficiaryStore is the persistence contract for beneficiary records.
type BeneficiaryStore interface {
	Create(ctx context.Context, record *models.BeneficiaryRecord) error
	Update(ctx context.Context, record *models.BeneficiaryRecord) error
	FindByID(ctx context.Context, recordID id.BeneficiaryID) (*models.BeneficiaryRecord, error)
	Delete(ctx context.Context, recordID id.BeneficiaryID) error
	IDNumberInUse(ctx context.Context, idNumber string) (bool, error)
	HasDuplicate(ctx context.Context, firstName, lastName string, birthdate *string, exclude id.BeneficiaryID) (bool, error)
	List(ctx context.Context, filter models.ListFilter, knownProviders []string) (*models.PageResult, error)
}

// BarangayStore resolves subdivision references.
type BarangayStore interface {
	FindByID(ctx context.Context, barangayID id.BarangayID) (*barangaymodels.Barangay, error)
}

// SchemaValidator checks attribute maps against the current intake schema.
type SchemaValidator interface {
	ValidateAttributes(ctx context.Context, m attrs.Map, requireAll bool) error
}

// AuditPublisher receives structured audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the beneficiary registry: creation and update with
// duplicate detection and identifier allocation, lifecycle transitions, and
// filtered listings.
type Service struct {
	records   BeneficiaryStore
	barangays BarangayStore
	schema    SchemaValidator
	allocator *allocator.Allocator

	mediaStore     media.Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	knownProviders []string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMediaStore(store media.Store) Option {
	return func(s *Service) { s.mediaStore = store }
}

// WithPensionProviders overrides the known-provider list backing the
// "Others" filter bucket.
func WithPensionProviders(providers []string) Option {
	return func(s *Service) { s.knownProviders = providers }
}

// New constructs a Service.
func New(records BeneficiaryStore, barangays BarangayStore, schema SchemaValidator, alloc *allocator.Allocator, opts ...Option) *Service {
	s := &Service{
		records:   records,
		barangays: barangays,
		schema:    schema,
		allocator: alloc,
		logger:    slog.Default(),
		tracer:    otel.Tracer("lingap/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a record by ID.
func (s *Service) Get(ctx context.Context, recordID id.BeneficiaryID) (*models.BeneficiaryRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	return record, nil
}

// IsDuplicate is the duplicate detector: case-insensitive, trimmed identity
// match against non-deleted records. Records without a birthdate form their
// own equivalence class; a missing birthdate never matches dated records.
func (s *Service) IsDuplicate(ctx context.Context, firstName, lastName string, birthdate *string, exclude id.BeneficiaryID) (bool, error) {
	duplicate, err := s.records.HasDuplicate(ctx, firstName, lastName, birthdate, exclude)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check duplicates")
	}
	return duplicate, nil
}

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
	// Awaited but best-effort: a lost audit entry is an accepted gap, not a
	// reason to fail the domain operation.
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}

// birthdateOf extracts the duplicate-check birthdate from an attribute map.
func birthdateOf(m attrs.Map) *string {
	d, ok := m.Date(models.KeyBirthdate)
	if !ok {
		return nil
	}
	formatted := d.Format(attrs.DateLayout)
	return &formatted
}
