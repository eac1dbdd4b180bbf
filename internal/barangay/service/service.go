package service

import (
	"context"
	"errors"
	"log/slog"

	"lingap/internal/barangay/models"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// Store is the persistence contract for barangay reference data.
type Store interface {
	CreateIfAvailable(ctx context.Context, b *models.Barangay) error
	FindByID(ctx context.Context, barangayID id.BarangayID) (*models.Barangay, error)
	FindByName(ctx context.Context, name string) (*models.Barangay, error)
	List(ctx context.Context) ([]*models.Barangay, error)
}

// Service manages barangay reference data. The registry consults it for
// reference validation and control-code lookup; the management screens
// live outside this core.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new barangay with a unique name and control code.
func (s *Service) Create(ctx context.Context, name, controlCode string) (*models.Barangay, error) {
	b, err := models.NewBarangay(id.NewBarangayID(), name, controlCode, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateIfAvailable(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "barangay name and control code must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create barangay")
	}

	s.logger.InfoContext(ctx, "barangay created", "barangay_id", b.ID.String(), "control_code", b.ControlCode)
	return b, nil
}

// Get returns a barangay by ID.
func (s *Service) Get(ctx context.Context, barangayID id.BarangayID) (*models.Barangay, error) {
	b, err := s.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "barangay not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load barangay")
	}
	return b, nil
}

// List returns all barangays ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.Barangay, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list barangays")
	}
	return out, nil
}
