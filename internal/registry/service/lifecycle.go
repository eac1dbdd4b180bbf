package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingap/internal/audit"
	"lingap/internal/registry/models"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// Lifecycle transitions. Each is a read-then-write over an individually
// idempotent flag change, so a crash between the two steps is always safe
// to retry. Transitions return false rather than erroring when invoked
// from a state that cannot satisfy them - a deliberate domain convention.

// loadForTransition fetches the record, mapping "not found" to the
// false-return convention shared by every transition.
func (s *Service) loadForTransition(ctx context.Context, recordID id.BeneficiaryID) (*models.BeneficiaryRecord, bool, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	return record, true, nil
}

func (s *Service) persistTransition(ctx context.Context, record *models.BeneficiaryRecord) error {
	if err := s.records.Update(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist transition")
	}
	return nil
}

// Register moves an applied record into the active roster. Idempotent:
// registering an already-registered record reports true without writing.
func (s *Service) Register(ctx context.Context, recordID id.BeneficiaryID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Register")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}
	alreadyRegistered := record.Registered
	if !record.ApplyRegister(requestcontext.Now(ctx)) {
		return false, nil
	}
	if alreadyRegistered {
		return true, nil
	}
	if err := s.persistTransition(ctx, record); err != nil {
		return false, err
	}
	s.emitAudit(ctx, audit.ActionBeneficiaryRegistered,
		fmt.Sprintf("registered beneficiary %s (%s)", record.FullName(), record.IDNumber()))
	return true, nil
}

// SoftDelete hides the record from every listing. Idempotent.
func (s *Service) SoftDelete(ctx context.Context, recordID id.BeneficiaryID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.SoftDelete")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}
	alreadyDeleted := record.Deleted
	record.ApplySoftDelete(requestcontext.Now(ctx))
	if alreadyDeleted {
		return true, nil
	}
	if err := s.persistTransition(ctx, record); err != nil {
		return false, err
	}
	s.emitAudit(ctx, audit.ActionBeneficiaryDeleted,
		fmt.Sprintf("soft-deleted beneficiary %s (%s)", record.FullName(), record.IDNumber()))
	return true, nil
}

// Restore undoes a soft delete only; the record returns to exactly the
// visibility its other flags imply. False when not currently deleted.
func (s *Service) Restore(ctx context.Context, recordID id.BeneficiaryID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Restore")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}
	if !record.ApplyRestore(requestcontext.Now(ctx)) {
		return false, nil
	}
	if err := s.persistTransition(ctx, record); err != nil {
		return false, err
	}
	s.emitAudit(ctx, audit.ActionBeneficiaryRestored,
		fmt.Sprintf("restored beneficiary %s (%s)", record.FullName(), record.IDNumber()))
	return true, nil
}

// Archive marks a registered record archived with a reason and optional
// deceased date. False when missing, never registered, or already archived.
func (s *Service) Archive(ctx context.Context, recordID id.BeneficiaryID, reason string, deceasedDate *time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Archive")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}
	if !record.ApplyArchive(reason, deceasedDate, requestcontext.Now(ctx)) {
		return false, nil
	}
	if err := s.persistTransition(ctx, record); err != nil {
		return false, err
	}
	s.emitAudit(ctx, audit.ActionBeneficiaryArchived,
		fmt.Sprintf("archived beneficiary %s (%s): %s", record.FullName(), record.IDNumber(), reason))
	return true, nil
}

// RestoreArchive clears the archived flag and its metadata, independent of
// the deleted flag. False when not archived.
func (s *Service) RestoreArchive(ctx context.Context, recordID id.BeneficiaryID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.RestoreArchive")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}
	if !record.ApplyRestoreArchive(requestcontext.Now(ctx)) {
		return false, nil
	}
	if err := s.persistTransition(ctx, record); err != nil {
		return false, err
	}
	s.emitAudit(ctx, audit.ActionArchiveRestored,
		fmt.Sprintf("restored beneficiary %s (%s) from archive", record.FullName(), record.IDNumber()))
	return true, nil
}

// PermanentlyDelete removes the record and requests media cleanup. The
// only irreversible transition. False when the record does not exist.
// Media destruction is best-effort: the external store retries on its own,
// and a leaked asset never blocks the purge.
func (s *Service) PermanentlyDelete(ctx context.Context, recordID id.BeneficiaryID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.PermanentlyDelete")
	defer span.End()

	record, found, err := s.loadForTransition(ctx, recordID)
	if err != nil || !found {
		return false, err
	}

	if s.mediaStore != nil {
		for _, externalID := range []string{record.DocumentExternalID, record.PhotoExternalID} {
			if externalID == "" {
				continue
			}
			if err := s.mediaStore.Destroy(ctx, externalID); err != nil {
				s.logger.WarnContext(ctx, "media cleanup failed during purge",
					"beneficiary_id", recordID.String(), "error", err)
			}
		}
	}

	if err := s.records.Delete(ctx, recordID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete beneficiary")
	}

	s.emitAudit(ctx, audit.ActionBeneficiaryPurged,
		fmt.Sprintf("permanently deleted beneficiary %s (%s)", record.FullName(), record.IDNumber()))
	return true, nil
}
