package models

import "time"

// Lifecycle transitions. Each method mutates the record and reports whether
// the caller should treat the operation as satisfied. Transitions invoked
// from an already-satisfied state are idempotent no-ops by domain
// convention: they return a boolean, never an error.

// ApplyRegister moves Applied -> Registered. Returns true when the record
// is registered afterwards, including the already-registered case. Deleted
// records cannot be registered.
func (r *BeneficiaryRecord) ApplyRegister(now time.Time) bool {
	if r.Deleted {
		return false
	}
	if r.Registered {
		return true
	}
	r.Registered = true
	r.UpdatedAt = now
	return true
}

// ApplySoftDelete hides the record from every listing. Idempotent: deleting
// an already-deleted record reports true without touching DeletedAt.
func (r *BeneficiaryRecord) ApplySoftDelete(now time.Time) bool {
	if r.Deleted {
		return true
	}
	r.Deleted = true
	r.DeletedAt = &now
	r.UpdatedAt = now
	return true
}

// ApplyRestore undoes a soft delete only. Returns false when the record is
// not currently deleted. The registered and archived flags are untouched, so
// the record returns to exactly its prior visibility.
func (r *BeneficiaryRecord) ApplyRestore(now time.Time) bool {
	if !r.Deleted {
		return false
	}
	r.Deleted = false
	r.DeletedAt = nil
	r.UpdatedAt = now
	return true
}

// ApplyArchive marks a registered record archived with a reason and an
// optional deceased date. Returns false when already archived or never
// registered: archiving presumes a prior registration.
func (r *BeneficiaryRecord) ApplyArchive(reason string, archiveDate *time.Time, now time.Time) bool {
	if r.Archived || !r.Registered {
		return false
	}
	r.Archived = true
	r.ArchiveReason = reason
	if archiveDate != nil {
		t := *archiveDate
		r.ArchiveDate = &t
	}
	r.UpdatedAt = now
	return true
}

// ApplyRestoreArchive clears the archived flag and its metadata. Independent
// of the deleted flag. Returns false when not archived.
func (r *BeneficiaryRecord) ApplyRestoreArchive(now time.Time) bool {
	if !r.Archived {
		return false
	}
	r.Archived = false
	r.ArchiveReason = ""
	r.ArchiveDate = nil
	r.UpdatedAt = now
	return true
}
