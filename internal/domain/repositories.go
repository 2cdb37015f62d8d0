package domain

import "context"

// DocumentStore defines the Document Store Gateway the editor core persists through
type DocumentStore interface {
	// FetchDocument retrieves the document for a listing and document type.
	// Returns ErrDocumentNotFound when no row exists.
	FetchDocument(ctx context.Context, ref DocumentRef) (*Document, error)

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*Document, error)

	// CreateDocument creates an empty document for the pair.
	// Returns ErrDocumentExists if one is already present.
	CreateDocument(ctx context.Context, ref DocumentRef) (*Document, error)

	// PatchDocumentData deep-merges patch onto the stored documentData and bumps the version.
	// When expectedVersion > 0 and differs from the stored version, ErrVersionConflict is returned.
	PatchDocumentData(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*Document, error)
}

// AssetStore stores binary assets (logos, photos, crops) and returns their public URL
type AssetStore interface {
	// UploadAsset stores data and returns the URL it is served from
	UploadAsset(ctx context.Context, data []byte, contentType string) (string, error)

	// FetchAsset returns the bytes behind a URL previously returned by UploadAsset
	FetchAsset(ctx context.Context, url string) ([]byte, error)
}

// HealthChecker defines the interface for health checks
type HealthChecker interface {
	// CheckConnection checks if the database connection is healthy
	CheckConnection(ctx context.Context) error

	// EnsureCollections ensures that required collections/tables exist
	EnsureCollections(ctx context.Context) error
}

// SectionWriter persists one section of the document selected by ref.
// The section value is deep-merged onto the stored section; other sections are untouched.
type SectionWriter interface {
	PatchSection(ctx context.Context, ref DocumentRef, section Section, value interface{}, expectedVersion int64) (*Document, error)
}
