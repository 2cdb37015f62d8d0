package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aj0urdain/Landmark-App-sub000/internal/cache"
	"github.com/aj0urdain/Landmark-App-sub000/internal/editors"
	"github.com/aj0urdain/Landmark-App-sub000/internal/imaging"
	"github.com/aj0urdain/Landmark-App-sub000/internal/layout"
	"github.com/aj0urdain/Landmark-App-sub000/internal/middleware"
	"github.com/aj0urdain/Landmark-App-sub000/internal/processor"
	"github.com/aj0urdain/Landmark-App-sub000/internal/repositories"
	"github.com/aj0urdain/Landmark-App-sub000/internal/storage"
	"github.com/aj0urdain/Landmark-App-sub000/internal/usecases"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
)

const maxUpload = 1 << 20

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store := repositories.NewMemoryRepository()
	validator := validation.MustNew()
	gateway := usecases.NewDocumentUsecase(store, nil, validator, logger, 4)

	assets, err := storage.NewFilesystem(storage.Config{BasePath: t.TempDir(), BaseURL: "/assets"}, logger)
	require.NoError(t, err)

	cropper := imaging.NewCropper(assets, logger)
	proc := processor.NewCropProcessor(cropper, 2, 8, logger)
	proc.Start()
	t.Cleanup(proc.Stop)

	drafts := cache.NewDrafts(cache.NewShardedCache(4, 3600))
	renderer := layout.NewRenderer(drafts, layout.Overlays{}, logger)
	sessions := usecases.NewSessionUsecase(gateway, drafts, renderer, assets, cropper, proc, validator, logger, usecases.SessionOptions{
		Editor:         editors.Options{Debounce: time.Hour, StatusTTL: time.Second},
		OverlayOpacity: 0.5,
	})
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	NewDocumentHandler(gateway, assets, maxUpload, logger).Register(r)
	sessionHandler := NewSessionHandler(sessions, maxUpload, logger)
	sessionHandler.Register(r)
	sessionHandler.RegisterStream(r)
	r.Method(http.MethodGet, "/assets/*", http.StripPrefix("/assets", assets.Handler()))
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func upload(t *testing.T, h http.Handler, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var refBody = map[string]string{"listingId": "listing-1", "documentTypeId": "portfolio"}

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/sessions", refBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestDocumentLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/documents?listing_id=listing-1&document_type_id=portfolio", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_created", decode(t, rec)["state"])

	rec = do(t, h, http.MethodGet, "/documents?listing_id=listing-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/documents", refBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode(t, rec)
	id := doc["id"].(string)
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))

	rec = do(t, h, http.MethodPost, "/documents", refBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	patch := map[string]interface{}{"headlineData": map[string]interface{}{"headline": "Prime Retail"}}
	rec = do(t, h, http.MethodPatch, "/documents/"+id, patch, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))

	rec = do(t, h, http.MethodPatch, "/documents/"+id, patch, "If-Match", `"1"`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPatch, "/documents/"+id, map[string]interface{}{"unknownData": map[string]interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["documentData"].(map[string]interface{})
	assert.Equal(t, "Prime Retail", data["headlineData"].(map[string]interface{})["headline"])

	rec = do(t, h, http.MethodGet, "/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadAsset(t *testing.T) {
	h := newTestRouter(t)

	rec := upload(t, h, "/assets", testPNG(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	url := decode(t, rec)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/assets/"))

	served := do(t, h, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusOK, served.Code)

	rec = upload(t, h, "/assets", []byte("plain text is not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, h, "/assets", bytes.Repeat([]byte{0x89}, maxUpload+10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSessionEditAndCommit(t *testing.T) {
	h := newTestRouter(t)
	id := openSession(t, h)
	base := "/sessions/" + id

	rec := do(t, h, http.MethodGet, base+"/page", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_created", decode(t, rec)["state"])

	rec = do(t, h, http.MethodPost, base+"/document", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/sections/headline", map[string]interface{}{
		"fields": map[string]interface{}{"headline": "Prime Retail"},
		"caret":  map[string]interface{}{"field": "headline", "offset": 40},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.Equal(t, true, res["applied"])
	assert.Equal(t, float64(len("Prime Retail")), res["caret"].(map[string]interface{})["offset"])

	rec = do(t, h, http.MethodPost, base+"/sections/headline/commit", nil, "If-Match", `"9"`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/sections/headline/commit", nil, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", decode(t, rec)["state"])

	rec = do(t, h, http.MethodGet, "/documents?listing_id=listing-1&document_type_id=portfolio", nil)
	data := decode(t, rec)["documentData"].(map[string]interface{})
	assert.Equal(t, "Prime Retail", data["headlineData"].(map[string]interface{})["headline"])

	rec = do(t, h, http.MethodGet, base+"/sections/headline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Prime Retail", decode(t, rec)["draft"].(map[string]interface{})["headline"])

	rec = do(t, h, http.MethodGet, base+"/page?width=420&height=1000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.Equal(t, "loaded", page["state"])
	assert.InDelta(t, 2.0, page["scale"], 1e-9)

	rec = do(t, h, http.MethodGet, base+"/page.html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Prime Retail")
}

func TestSessionSelectAndPreview(t *testing.T) {
	h := newTestRouter(t)
	base := "/sessions/" + openSession(t, h)

	rec := do(t, h, http.MethodPost, base+"/select", map[string]string{"section": "finance"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Finance", decode(t, rec)["title"])

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{"section": "footer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/preview", map[string]interface{}{"zoom": 2, "container": map[string]float64{"width": 420, "height": 1000}})
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode(t, rec)
	assert.Equal(t, 2.0, settings["zoom"])
	assert.InDelta(t, 2.0, settings["scale"], 1e-9)

	rec = do(t, h, http.MethodPut, base+"/preview", map[string]interface{}{"zoom": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/sections/footer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionCropMissingImage(t *testing.T) {
	h := newTestRouter(t)
	base := "/sessions/" + openSession(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, base+"/document", nil).Code)

	rec := do(t, h, http.MethodPost, base+"/sections/photo/0/crop", map[string]interface{}{
		"original": "/assets/2026/01/missing.png",
		"crop":     map[string]int{"x": 0, "y": 0, "width": 10, "height": 10},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["retry"])

	rec = do(t, h, http.MethodGet, base+"/sections/photo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["draft"])

	rec = do(t, h, http.MethodPost, base+"/sections/photo/x/crop", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCropUploadedPhoto(t *testing.T) {
	h := newTestRouter(t)
	base := "/sessions/" + openSession(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, base+"/document", nil).Code)

	rec := upload(t, h, "/assets", testPNG(t))
	require.Equal(t, http.StatusCreated, rec.Code)
	original := decode(t, rec)["url"].(string)

	rec = do(t, h, http.MethodPost, base+"/sections/photo/0/crop/init", map[string]string{"original": original})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, original, decode(t, rec)["original"])

	rec = do(t, h, http.MethodPost, base+"/sections/photo/0/crop", map[string]string{"original": original})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft := decode(t, rec)["draft"].(map[string]interface{})
	photos := draft["photos"].([]interface{})
	require.Len(t, photos, 1)
	assert.Equal(t, original, photos[0].(map[string]interface{})["original"])
	assert.NotEmpty(t, photos[0].(map[string]interface{})["cropped"])

	rec = do(t, h, http.MethodDelete, base+"/sections/photo/0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSessionLogosAndAgents(t *testing.T) {
	h := newTestRouter(t)
	base := "/sessions/" + openSession(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, base+"/document", nil).Code)

	rec := upload(t, h, base+"/sections/logo/0", testPNG(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no logo slots yet")

	rec = do(t, h, http.MethodPut, base+"/sections/logo", map[string]interface{}{"fields": map[string]interface{}{"logoCount": 2}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = upload(t, h, base+"/sections/logo/1", testPNG(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	logos := decode(t, rec)["draft"].(map[string]interface{})["logos"].([]interface{})
	require.Len(t, logos, 2)
	assert.Equal(t, "", logos[0])
	assert.True(t, strings.HasPrefix(logos[1].(string), "/assets/"))

	rec = do(t, h, http.MethodPost, base+"/sections/agents/add", map[string]string{"name": "Ann", "phone": "0400 000 001"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["applied"])

	rec = do(t, h, http.MethodPost, base+"/sections/agents/add", map[string]string{"name": "Ann"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["applied"])

	rec = do(t, h, http.MethodPost, base+"/sections/agents/remove", map[string]string{"name": "Ann"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["applied"])

	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionEventsStream(t *testing.T) {
	h := newTestRouter(t)
	id := openSession(t, h)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	rec := do(t, h, http.MethodPut, "/sessions/"+id+"/sections/headline", map[string]interface{}{
		"fields": map[string]interface{}{"headline": "Streamed"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: draft") {
			break
		}
	}
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"headline":"Streamed"`)
}
