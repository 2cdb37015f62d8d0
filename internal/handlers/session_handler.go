package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/editors"
	"github.com/aj0urdain/Landmark-App-sub000/internal/layout"
	"github.com/aj0urdain/Landmark-App-sub000/internal/middleware"
	"github.com/aj0urdain/Landmark-App-sub000/internal/usecases"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 15 * time.Second
)

// SessionHandler handles HTTP requests for editing sessions
type SessionHandler struct {
	responder
	sessions  *usecases.SessionUsecase
	maxUpload int64
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *usecases.SessionUsecase, maxUpload int64, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		responder: responder{logger: logger},
		sessions:  sessions,
		maxUpload: maxUpload,
	}
}

// Register mounts the session routes except the event stream
func (h *SessionHandler) Register(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.Open)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Rekey)
			r.Delete("/", h.Close)
			r.Post("/document", h.CreateDocument)
			r.Get("/page", h.Page)
			r.Get("/page.html", h.PageHTML)
			r.Put("/preview", h.UpdatePreview)
			r.Post("/select", h.Select)

			r.Route("/sections", func(r chi.Router) {
				r.Post("/agents/add", h.AddAgent)
				r.Post("/agents/remove", h.RemoveAgent)
				r.Post("/photo/{index}/crop/init", h.OpenCrop)
				r.Post("/photo/{index}/crop", h.ConfirmCrop)
				r.Delete("/photo/{index}", h.ClearPhoto)
				r.Post("/logo/{index}", h.UploadLogo)

				r.Get("/{section}", h.Section)
				r.Put("/{section}", h.ApplyChange)
				r.Post("/{section}/commit", h.Commit)
				r.Post("/{section}/blur", h.Blur)
			})
		})
	})
}

// RegisterStream mounts GET /sessions/{id}/events. It lives outside the
// timeout group because the stream stays open.
func (h *SessionHandler) RegisterStream(r chi.Router) {
	r.Get("/sessions/{id}/events", h.Events)
}

// Open handles POST /sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var ref domain.DocumentRef
	if err := decodeJSON(r, &ref); err != nil {
		h.respondFailure(w, r, "open session", err)
		return
	}
	view, err := h.sessions.Open(r.Context(), ref)
	if err != nil {
		h.respondFailure(w, r, "open session", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view, middleware.GetRequestID(r.Context()))
}

// Get handles GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, "get session", err)
		return
	}
	h.respondJSON(w, http.StatusOK, view, middleware.GetRequestID(r.Context()))
}

// Rekey handles PUT /sessions/{id}: the session switches to another listing or document type
func (h *SessionHandler) Rekey(w http.ResponseWriter, r *http.Request) {
	var ref domain.DocumentRef
	if err := decodeJSON(r, &ref); err != nil {
		h.respondFailure(w, r, "rekey session", err)
		return
	}
	view, err := h.sessions.Rekey(r.Context(), chi.URLParam(r, "id"), ref)
	if err != nil {
		h.respondFailure(w, r, "rekey session", err)
		return
	}
	h.respondJSON(w, http.StatusOK, view, middleware.GetRequestID(r.Context()))
}

// Close handles DELETE /sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondFailure(w, r, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateDocument handles POST /sessions/{id}/document
func (h *SessionHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sessions.CreateDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, "create document", err)
		return
	}
	setVersion(w, doc)
	h.respondJSON(w, http.StatusCreated, doc, middleware.GetRequestID(r.Context()))
}

// Page handles GET /sessions/{id}/page?width=&height=
func (h *SessionHandler) Page(w http.ResponseWriter, r *http.Request) {
	p, err := h.render(r)
	if err != nil {
		h.respondFailure(w, r, "render page", err)
		return
	}
	h.respondJSON(w, http.StatusOK, p, middleware.GetRequestID(r.Context()))
}

// PageHTML handles GET /sessions/{id}/page.html
func (h *SessionHandler) PageHTML(w http.ResponseWriter, r *http.Request) {
	p, err := h.render(r)
	if err != nil {
		h.respondFailure(w, r, "render page", err)
		return
	}
	var buf bytes.Buffer
	if err := layout.WriteHTML(&buf, p); err != nil {
		h.respondFailure(w, r, "render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// render reads an optional container size from the query
func (h *SessionHandler) render(r *http.Request) (*layout.Page, error) {
	var container *layout.Size
	q := r.URL.Query()
	if q.Get("width") != "" || q.Get("height") != "" {
		width, err := strconv.ParseFloat(q.Get("width"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: width must be a number", domain.ErrValidation)
		}
		height, err := strconv.ParseFloat(q.Get("height"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: height must be a number", domain.ErrValidation)
		}
		container = &layout.Size{Width: width, Height: height}
	}
	return h.sessions.Render(r.Context(), chi.URLParam(r, "id"), container)
}

// UpdatePreview handles PUT /sessions/{id}/preview
func (h *SessionHandler) UpdatePreview(w http.ResponseWriter, r *http.Request) {
	var update layout.PreviewUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.respondFailure(w, r, "update preview", err)
		return
	}
	settings, err := h.sessions.UpdatePreview(chi.URLParam(r, "id"), update)
	if err != nil {
		h.respondFailure(w, r, "update preview", err)
		return
	}
	h.respondJSON(w, http.StatusOK, settings, middleware.GetRequestID(r.Context()))
}

// Select handles POST /sessions/{id}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Section domain.Section `json:"section"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondFailure(w, r, "select section", err)
		return
	}
	panel, err := h.sessions.Select(chi.URLParam(r, "id"), body.Section)
	if err != nil {
		h.respondFailure(w, r, "select section", err)
		return
	}
	h.respondJSON(w, http.StatusOK, panel, middleware.GetRequestID(r.Context()))
}

// Section handles GET /sessions/{id}/sections/{section}
func (h *SessionHandler) Section(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		h.respondFailure(w, r, "get section", err)
		return
	}
	view, err := h.sessions.Section(r.Context(), chi.URLParam(r, "id"), section)
	if err != nil {
		h.respondFailure(w, r, "get section", err)
		return
	}
	h.respondJSON(w, http.StatusOK, view, middleware.GetRequestID(r.Context()))
}

// ApplyChange handles PUT /sessions/{id}/sections/{section}
func (h *SessionHandler) ApplyChange(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		h.respondFailure(w, r, "apply change", err)
		return
	}
	var change editors.Change
	if err := decodeJSON(r, &change); err != nil {
		h.respondFailure(w, r, "apply change", err)
		return
	}
	res, err := h.sessions.ApplyChange(r.Context(), chi.URLParam(r, "id"), section, change)
	if err != nil {
		h.respondFailure(w, r, "apply change", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

// Commit handles POST /sessions/{id}/sections/{section}/commit
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		h.respondFailure(w, r, "commit section", err)
		return
	}
	version, err := expectedVersion(r)
	if err != nil {
		h.respondFailure(w, r, "commit section", err)
		return
	}
	status, err := h.sessions.Commit(r.Context(), chi.URLParam(r, "id"), section, version)
	if err != nil {
		h.respondFailure(w, r, "commit section", err)
		return
	}
	h.respondJSON(w, http.StatusOK, status, middleware.GetRequestID(r.Context()))
}

// Blur handles POST /sessions/{id}/sections/{section}/blur
func (h *SessionHandler) Blur(w http.ResponseWriter, r *http.Request) {
	section, err := domain.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		h.respondFailure(w, r, "blur section", err)
		return
	}
	status, err := h.sessions.Blur(r.Context(), chi.URLParam(r, "id"), section)
	if err != nil {
		h.respondFailure(w, r, "blur section", err)
		return
	}
	h.respondJSON(w, http.StatusOK, status, middleware.GetRequestID(r.Context()))
}

// AddAgent handles POST /sessions/{id}/sections/agents/add
func (h *SessionHandler) AddAgent(w http.ResponseWriter, r *http.Request) {
	var agent domain.Agent
	if err := decodeJSON(r, &agent); err != nil {
		h.respondFailure(w, r, "add agent", err)
		return
	}
	res, err := h.sessions.AddAgent(r.Context(), chi.URLParam(r, "id"), agent)
	if err != nil {
		h.respondFailure(w, r, "add agent", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

// RemoveAgent handles POST /sessions/{id}/sections/agents/remove
func (h *SessionHandler) RemoveAgent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.respondFailure(w, r, "remove agent", err)
		return
	}
	res, err := h.sessions.RemoveAgent(r.Context(), chi.URLParam(r, "id"), body.Name)
	if err != nil {
		h.respondFailure(w, r, "remove agent", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

type cropRequest struct {
	Original string           `json:"original"`
	Crop     *domain.CropRect `json:"crop,omitempty"`
}

// OpenCrop handles POST /sessions/{id}/sections/photo/{index}/crop/init
func (h *SessionHandler) OpenCrop(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondFailure(w, r, "open crop", err)
		return
	}
	var body cropRequest
	if err := decodeJSON(r, &body); err != nil {
		h.respondFailure(w, r, "open crop", err)
		return
	}
	session, err := h.sessions.OpenCrop(r.Context(), chi.URLParam(r, "id"), index, body.Original)
	if err != nil {
		h.respondFailure(w, r, "open crop", err)
		return
	}
	h.respondJSON(w, http.StatusOK, session, middleware.GetRequestID(r.Context()))
}

// ConfirmCrop handles POST /sessions/{id}/sections/photo/{index}/crop
func (h *SessionHandler) ConfirmCrop(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondFailure(w, r, "confirm crop", err)
		return
	}
	var body cropRequest
	if err := decodeJSON(r, &body); err != nil {
		h.respondFailure(w, r, "confirm crop", err)
		return
	}
	res, err := h.sessions.ConfirmCrop(r.Context(), chi.URLParam(r, "id"), index, body.Original, body.Crop)
	if err != nil {
		h.respondFailure(w, r, "confirm crop", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

// ClearPhoto handles DELETE /sessions/{id}/sections/photo/{index}
func (h *SessionHandler) ClearPhoto(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondFailure(w, r, "clear photo", err)
		return
	}
	res, err := h.sessions.ClearPhoto(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.respondFailure(w, r, "clear photo", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

// UploadLogo handles POST /sessions/{id}/sections/logo/{index} (multipart field "file")
func (h *SessionHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(chi.URLParam(r, "index"), "index")
	if err != nil {
		h.respondFailure(w, r, "upload logo", err)
		return
	}
	data, contentType, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		h.respondFailure(w, r, "upload logo", err)
		return
	}
	res, err := h.sessions.UploadLogo(r.Context(), chi.URLParam(r, "id"), index, data, contentType)
	if err != nil {
		h.respondFailure(w, r, "upload logo", err)
		return
	}
	h.respondJSON(w, http.StatusOK, res, middleware.GetRequestID(r.Context()))
}

// Events handles GET /sessions/{id}/events as a server-sent event stream.
// Slow clients miss events rather than block editors.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming unsupported", middleware.GetRequestID(r.Context()))
		return
	}

	events := make(chan usecases.Event, eventBuffer)
	unsub, err := h.sessions.Subscribe(chi.URLParam(r, "id"), func(e usecases.Event) {
		select {
		case events <- e:
		default:
		}
	})
	if err != nil {
		h.respondFailure(w, r, "subscribe", err)
		return
	}
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Warn("failed to encode event", zap.String("section", string(e.Section)), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
