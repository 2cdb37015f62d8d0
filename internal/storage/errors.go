// Package storage stores uploaded logos, photos and crop rasters and serves them back by URL.
package storage

import "errors"

// Storage errors returned by the asset store.
var (
	// ErrNotFound indicates the requested asset does not exist.
	ErrNotFound = errors.New("storage: asset not found")

	// ErrInvalidKey indicates the key is empty or escapes the base path.
	ErrInvalidKey = errors.New("storage: invalid key")

	// ErrTooLarge indicates the upload exceeds max_upload_size.
	ErrTooLarge = errors.New("storage: asset exceeds max upload size")

	// ErrUnsupportedType indicates the content type is not an accepted image format.
	ErrUnsupportedType = errors.New("storage: unsupported content type")
)
