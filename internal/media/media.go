// Package media defines the remote media-store collaborator used for
// beneficiary photos and supporting documents.
//
// The real backend (an external object/CDN service) lives outside this
// core; the registry stores the returned URL verbatim as an opaque string
// and asks for destruction on permanent deletes. Destroy retries are the
// collaborator's concern, not the registry's.
package media

import "context"

// Asset is the result of an upload: a public URL plus the backend's own
// identifier, needed later for destruction.
type Asset struct {
	URL        string
	ExternalID string
}

// Store is the upload/destroy contract.
type Store interface {
	// Upload stores the bytes under a folder hint and returns the asset.
	Upload(ctx context.Context, data []byte, folderHint string) (Asset, error)

	// Destroy removes a previously uploaded asset. Destroying an unknown
	// ID is not an error.
	Destroy(ctx context.Context, externalID string) error
}
