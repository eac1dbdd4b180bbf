package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lingap/internal/audit"
	"lingap/internal/registry/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// UpdateInput mirrors CreateInput for an existing record. Submitted
// attribute keys overwrite stored ones; keys not submitted are left alone,
// which is how attributes orphaned by schema edits survive updates.
type UpdateInput struct {
	FirstName  string
	LastName   string
	MiddleName string
	Suffix     string
	BarangayID id.BarangayID
	Attributes attrs.Map

	Document     []byte
	DocumentType string
	Photo        []byte
}

// Update rewrites a record's identity and attributes. Returns false, nil
// when the record is missing or soft-deleted. A barangay change always
// regenerates the ID number under the new control code, whether or not the
// stored prefix still matches.
func (s *Service) Update(ctx context.Context, recordID id.BeneficiaryID, input UpdateInput) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Update")
	defer span.End()

	existing, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	if existing.Deleted {
		return false, nil
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "first and last name cannot be empty")
	}

	if err := s.schema.ValidateAttributes(ctx, input.Attributes, false); err != nil {
		return false, err
	}

	updated := existing.Clone()
	updated.FirstName = firstName
	updated.LastName = lastName
	updated.MiddleName = strings.TrimSpace(input.MiddleName)
	updated.Suffix = strings.TrimSpace(input.Suffix)
	for key, value := range input.Attributes {
		if key == attrs.KeyIDNumber {
			// Reserved: the allocator owns it, caller input is ignored.
			continue
		}
		updated.Attributes[key] = value
	}
	updated.UpdatedAt = requestcontext.Now(ctx)

	duplicate, err := s.IsDuplicate(ctx, updated.FirstName, updated.LastName, birthdateOf(updated.Attributes), recordID)
	if err != nil {
		return false, err
	}
	if duplicate {
		if s.metrics != nil {
			s.metrics.DuplicatesRejected.Inc()
		}
		return false, dErrors.New(dErrors.CodeDuplicateRecord, "another beneficiary with this identity already exists")
	}

	barangayChanged := input.BarangayID != existing.BarangayID && !input.BarangayID.IsNil()
	var newControlCode string
	if barangayChanged {
		barangay, err := s.barangays.FindByID(ctx, input.BarangayID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return false, dErrors.New(dErrors.CodeInvalidReference, "barangay does not exist")
			}
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve barangay")
		}
		updated.BarangayID = input.BarangayID
		newControlCode = barangay.ControlCode
	}

	if err := s.replaceMedia(ctx, existing, updated, input); err != nil {
		return false, err
	}

	if barangayChanged {
		err = s.persistWithFreshIdentifier(ctx, updated, newControlCode, s.records.Update)
	} else {
		err = s.records.Update(ctx, updated)
		if errors.Is(err, sentinel.ErrDuplicateIDNumber) {
			err = dErrors.Wrap(err, dErrors.CodeDuplicateIdentifier, "id number uniqueness violated")
		} else if err != nil {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist beneficiary")
		}
	}
	if err != nil {
		return false, err
	}

	s.emitAudit(ctx, audit.ActionBeneficiaryUpdated,
		fmt.Sprintf("updated beneficiary %s (%s)", updated.FullName(), updated.IDNumber()))
	return true, nil
}

// replaceMedia uploads replacement assets and destroys the ones they
// supersede. The destroy is best-effort: a leaked old asset is preferable
// to failing the update.
func (s *Service) replaceMedia(ctx context.Context, existing, updated *models.BeneficiaryRecord, input UpdateInput) error {
	if s.mediaStore == nil || (input.Document == nil && input.Photo == nil) {
		return nil
	}
	if input.Document != nil {
		asset, err := s.mediaStore.Upload(ctx, input.Document, "beneficiaries/documents")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "document upload failed")
		}
		if existing.DocumentExternalID != "" {
			if err := s.mediaStore.Destroy(ctx, existing.DocumentExternalID); err != nil {
				s.logger.WarnContext(ctx, "stale document cleanup failed", "error", err)
			}
		}
		updated.DocumentURL = asset.URL
		updated.DocumentExternalID = asset.ExternalID
		updated.DocumentType = input.DocumentType
	}
	if input.Photo != nil {
		asset, err := s.mediaStore.Upload(ctx, input.Photo, "beneficiaries/photos")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "photo upload failed")
		}
		if existing.PhotoExternalID != "" {
			if err := s.mediaStore.Destroy(ctx, existing.PhotoExternalID); err != nil {
				s.logger.WarnContext(ctx, "stale photo cleanup failed", "error", err)
			}
		}
		updated.PhotoURL = asset.URL
		updated.PhotoExternalID = asset.ExternalID
	}
	return nil
}
