package domain

import "errors"

// Domain errors. Callers wrap them with context and match them with errors.Is.
var (
	// ErrDocumentNotFound indicates no document exists for the requested key.
	// For a (listing, document type) lookup this is a displayable state, not a failure.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists indicates a document already exists for the listing and document type.
	ErrDocumentExists = errors.New("document already exists")

	// ErrVersionConflict indicates the caller's expected version is stale.
	ErrVersionConflict = errors.New("document version conflict")

	// ErrInvalidSection indicates an unknown section name.
	ErrInvalidSection = errors.New("invalid section")

	// ErrValidation indicates a section payload failed schema or field validation.
	ErrValidation = errors.New("validation failed")

	// ErrImageLoad indicates a source image could not be fetched or decoded.
	ErrImageLoad = errors.New("image could not be loaded")

	// ErrNoSelection indicates the listing or document type has not been chosen.
	ErrNoSelection = errors.New("listing and document type must be selected")

	// ErrSessionNotFound indicates an unknown or closed editing session.
	ErrSessionNotFound = errors.New("session not found")
)
