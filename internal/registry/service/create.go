package service

import (
	"context"
	"errors"
	"fmt"

	"lingap/internal/audit"
	"lingap/internal/registry/models"
	"lingap/pkg/attrs"
	id "lingap/pkg/domain"
	dErrors "lingap/pkg/domainerrors"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/requestcontext"
)

// CreateInput carries everything needed to register an application.
type CreateInput struct {
	FirstName  string
	LastName   string
	MiddleName string
	Suffix     string
	BarangayID id.BarangayID
	Attributes attrs.Map

	// Optional media, uploaded to the external store before persisting.
	Document     []byte
	DocumentType string
	Photo        []byte
}

// Create validates identity and attributes, runs the duplicate detector,
// allocates the beneficiary's ID number, and persists the record in the
// applied (pending) state.
//
// The allocator's check is optimistic; when the store's uniqueness index
// still rejects the drawn idNumber, allocation is retried a bounded number
// of times before the collision surfaces as CodeDuplicateIdentifier.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.BeneficiaryRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Create")
	defer span.End()

	record, err := models.NewBeneficiaryRecord(id.NewBeneficiaryID(), input.FirstName, input.LastName,
		input.MiddleName, input.Suffix, input.BarangayID, input.Attributes, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	barangay, err := s.barangays.FindByID(ctx, input.BarangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidReference, "barangay does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve barangay")
	}

	duplicate, err := s.IsDuplicate(ctx, record.FirstName, record.LastName, birthdateOf(record.Attributes), id.BeneficiaryID{})
	if err != nil {
		return nil, err
	}
	if duplicate {
		if s.metrics != nil {
			s.metrics.DuplicatesRejected.Inc()
		}
		return nil, dErrors.New(dErrors.CodeDuplicateRecord, "a beneficiary with this identity already exists")
	}

	if err := s.schema.ValidateAttributes(ctx, record.Attributes, true); err != nil {
		return nil, err
	}

	if err := s.attachMedia(ctx, record, input.Document, input.DocumentType, input.Photo); err != nil {
		return nil, err
	}

	if err := s.persistWithFreshIdentifier(ctx, record, barangay.ControlCode, s.records.Create); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BeneficiariesCreated.Inc()
	}
	s.emitAudit(ctx, audit.ActionBeneficiaryCreated,
		fmt.Sprintf("created beneficiary %s (%s) in %s", record.FullName(), record.IDNumber(), barangay.Name))
	s.logger.InfoContext(ctx, "beneficiary created",
		"beneficiary_id", record.ID.String(), "id_number", record.IDNumber())
	return record, nil
}

// persistWithFreshIdentifier allocates an idNumber and writes the record,
// re-drawing when the store's uniqueness backstop reports a collision.
func (s *Service) persistWithFreshIdentifier(ctx context.Context, record *models.BeneficiaryRecord, controlCode string, write func(context.Context, *models.BeneficiaryRecord) error) error {
	for attempt := 0; attempt < identifierAttempts; attempt++ {
		idNumber, err := s.allocator.Allocate(ctx, controlCode)
		if err != nil {
			return err
		}
		record.SetIDNumber(idNumber)

		err = write(ctx, record)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrDuplicateIDNumber) {
			s.logger.WarnContext(ctx, "id number collided at insert, re-drawing",
				"beneficiary_id", record.ID.String(), "id_number", idNumber)
			continue
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist beneficiary")
	}
	return dErrors.New(dErrors.CodeDuplicateIdentifier,
		"id number collided with concurrent writers on every attempt")
}

// attachMedia uploads submitted document and photo bytes, storing returned
// URLs verbatim. Upload failures surface as CodeUnavailable; nothing
// written so far is rolled back (no compensating transaction here).
func (s *Service) attachMedia(ctx context.Context, record *models.BeneficiaryRecord, document []byte, documentType string, photo []byte) error {
	if s.mediaStore == nil || (document == nil && photo == nil) {
		return nil
	}
	if document != nil {
		asset, err := s.mediaStore.Upload(ctx, document, "beneficiaries/documents")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "document upload failed")
		}
		record.DocumentURL = asset.URL
		record.DocumentExternalID = asset.ExternalID
		record.DocumentType = documentType
	}
	if photo != nil {
		asset, err := s.mediaStore.Upload(ctx, photo, "beneficiaries/photos")
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "photo upload failed")
		}
		record.PhotoURL = asset.URL
		record.PhotoExternalID = asset.ExternalID
	}
	return nil
}
