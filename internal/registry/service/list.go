package service

import (
	"context"
	"time"

	"lingap/internal/registry/models"
	dErrors "lingap/pkg/domainerrors"
)

// List runs the query engine over the registry. The filter is normalized
// before it reaches the store so both backends see the same page bounds
// and sort column. Total counts the full filtered set, not the page.
func (s *Service) List(ctx context.Context, filter models.ListFilter) (*models.PageResult, error) {
	ctx, span := s.tracer.Start(ctx, "registry.List")
	defer span.End()

	start := time.Now()
	filter = filter.Normalize()

	result, err := s.records.List(ctx, filter, s.knownProviders)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list beneficiaries")
	}
	if s.metrics != nil {
		s.metrics.ObserveList(start)
	}
	return result, nil
}
