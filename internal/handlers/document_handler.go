package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/middleware"
	"github.com/aj0urdain/Landmark-App-sub000/internal/usecases"
)

// DocumentHandler handles HTTP requests for stored documents and assets
type DocumentHandler struct {
	responder
	usecase   *usecases.DocumentUsecase
	assets    domain.AssetStore
	maxUpload int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(usecase *usecases.DocumentUsecase, assets domain.AssetStore, maxUpload int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		responder: responder{logger: logger},
		usecase:   usecase,
		assets:    assets,
		maxUpload: maxUpload,
	}
}

// Register mounts the document and asset routes
func (h *DocumentHandler) Register(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.FetchDocument)
		r.Post("/", h.CreateDocument)
		r.Get("/{id}", h.GetDocument)
		r.Patch("/{id}", h.PatchDocument)
	})
	r.Post("/assets", h.UploadAsset)
}

// FetchDocument handles GET /documents?listing_id=&document_type_id=
func (h *DocumentHandler) FetchDocument(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ref := domain.DocumentRef{
		ListingID:      r.URL.Query().Get("listing_id"),
		DocumentTypeID: r.URL.Query().Get("document_type_id"),
	}

	doc, err := h.usecase.FetchDocument(r.Context(), ref)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"state": "not_created",
			"ref":   ref,
		}, requestID)
		return
	}
	if err != nil {
		h.respondFailure(w, r, "fetch document", err)
		return
	}

	setVersion(w, doc)
	h.respondJSON(w, http.StatusOK, doc, requestID)
}

// GetDocument handles GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.usecase.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, "get document", err)
		return
	}
	setVersion(w, doc)
	h.respondJSON(w, http.StatusOK, doc, middleware.GetRequestID(r.Context()))
}

// CreateDocument handles POST /documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var ref domain.DocumentRef
	if err := decodeJSON(r, &ref); err != nil {
		h.respondFailure(w, r, "create document", err)
		return
	}

	doc, err := h.usecase.CreateDocument(r.Context(), ref)
	if err != nil {
		h.respondFailure(w, r, "create document", err)
		return
	}
	setVersion(w, doc)
	h.respondJSON(w, http.StatusCreated, doc, middleware.GetRequestID(r.Context()))
}

// PatchDocument handles PATCH /documents/{id}. The body maps section keys to partial data.
func (h *DocumentHandler) PatchDocument(w http.ResponseWriter, r *http.Request) {
	version, err := expectedVersion(r)
	if err != nil {
		h.respondFailure(w, r, "patch document", err)
		return
	}
	var patch map[string]interface{}
	if err := decodeJSON(r, &patch); err != nil {
		h.respondFailure(w, r, "patch document", err)
		return
	}

	doc, err := h.usecase.PatchDocument(r.Context(), chi.URLParam(r, "id"), patch, version)
	if err != nil {
		h.respondFailure(w, r, "patch document", err)
		return
	}
	setVersion(w, doc)
	h.respondJSON(w, http.StatusOK, doc, middleware.GetRequestID(r.Context()))
}

// UploadAsset handles POST /assets (multipart field "file")
func (h *DocumentHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		h.respondFailure(w, r, "upload asset", err)
		return
	}
	url, err := h.assets.UploadAsset(r.Context(), data, contentType)
	if err != nil {
		h.respondFailure(w, r, "upload asset", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"url": url}, middleware.GetRequestID(r.Context()))
}
