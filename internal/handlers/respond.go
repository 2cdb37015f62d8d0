package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/middleware"
	"github.com/aj0urdain/Landmark-App-sub000/internal/storage"
)

// multipartOverhead is the room left for multipart boundaries and headers
const multipartOverhead = 1 << 20

// responder writes JSON responses and maps domain errors to statuses
type responder struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

// respondError sends an error response
func (h responder) respondError(w http.ResponseWriter, status int, message, requestID string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":      message,
		"request_id": requestID,
	}, requestID)
}

// respondFailure maps err to a status. Image load failures carry retry so the
// client can offer the same crop again.
func (h responder) respondFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	status := errorStatus(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("op", op),
			zap.Error(err),
		)
		h.respondError(w, status, op+" failed", requestID)
		return
	}

	h.logger.Debug("request rejected",
		zap.String("request_id", requestID),
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	body := map[string]interface{}{
		"error":      err.Error(),
		"request_id": requestID,
	}
	if errors.Is(err, domain.ErrImageLoad) {
		body["retry"] = true
	}
	h.respondJSON(w, status, body, requestID)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDocumentExists), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidSection), errors.Is(err, domain.ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImageLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v; an empty body leaves v untouched
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// expectedVersion reads an If-Match header. Absent means no version check.
func expectedVersion(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: If-Match must be a positive document version", domain.ErrValidation)
	}
	return v, nil
}

// setVersion exposes the document version as an ETag for the next If-Match
func setVersion(w http.ResponseWriter, doc *domain.Document) {
	if doc != nil {
		w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(doc.Version, 10)))
	}
}

// readUpload reads the multipart "file" part, bounded by maxSize
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", storage.ErrTooLarge
		}
		return nil, "", fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: file part is required", domain.ErrValidation)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", storage.ErrTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// intParam parses a non-negative integer path or query value
func intParam(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return v, nil
}
