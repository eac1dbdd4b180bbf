// Package allocator generates per-barangay beneficiary ID numbers.
//
// There is no central sequence: an ID number is the barangay control code
// followed by a random 3-digit suffix, checked for uniqueness among
// non-deleted records. The check is optimistic - it is not atomic with the
// eventual insert - so the store's uniqueness index on idNumber is the
// authoritative backstop and callers retry allocation (bounded) when the
// insert reports a collision. This stays correct across multiple service
// instances without in-process locks.
package allocator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"lingap/internal/registry/metrics"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
)

// maxAttempts bounds the draw loop. Exhaustion signals near-saturation of
// the 1000-value suffix space for one control code and must surface as an
// error, never an unbounded retry.
const maxAttempts = 50

// suffixSpace is the number of distinct 3-digit suffixes.
const suffixSpace = 1000

// IDChecker reports whether an ID number is already held by a non-deleted
// record.
type IDChecker interface {
	IDNumberInUse(ctx context.Context, idNumber string) (bool, error)
}

// Allocator draws candidate ID numbers until one is free.
type Allocator struct {
	store   IDChecker
	logger  *slog.Logger
	metrics *metrics.Metrics
	intN    func(int) int
}

type Option func(*Allocator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) { a.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

// WithRand overrides the suffix source. Tests inject a deterministic draw.
func WithRand(intN func(int) int) Option {
	return func(a *Allocator) { a.intN = intN }
}

func New(store IDChecker, opts ...Option) *Allocator {
	a := &Allocator{store: store, logger: slog.Default(), intN: rand.IntN}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns an unused ID number under the control code: the code
// concatenated with a random zero-padded 3-digit suffix. Fails with
// CodeAllocationExhausted after the bounded number of draws.
func (a *Allocator) Allocate(ctx context.Context, controlCode string) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%03d", controlCode, a.intN(suffixSpace))

		inUse, err := a.store.IDNumberInUse(ctx, candidate)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check id number")
		}
		if !inUse {
			if a.metrics != nil {
				a.metrics.AllocatorDraws.Observe(float64(attempt))
			}
			return candidate, nil
		}
	}

	if a.metrics != nil {
		a.metrics.AllocatorExhausted.Inc()
	}
	a.logger.WarnContext(ctx, "identifier space near saturation", "control_code", controlCode)
	return "", dErrors.Newf(dErrors.CodeAllocationExhausted,
		"no free id number under control code %s after %d attempts", controlCode, maxAttempts)
}

// Reassign draws a fresh ID number under a new control code when a record
// moves between barangays. Same algorithm as Allocate; the record ID is
// carried for the audit trail only.
func (a *Allocator) Reassign(ctx context.Context, recordID id.BeneficiaryID, newControlCode string) (string, error) {
	idNumber, err := a.Allocate(ctx, newControlCode)
	if err != nil {
		return "", err
	}
	a.logger.InfoContext(ctx, "beneficiary id number reassigned",
		"beneficiary_id", recordID.String(), "control_code", newControlCode)
	return idNumber, nil
}
