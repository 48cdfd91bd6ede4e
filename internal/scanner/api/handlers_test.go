package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biznesyordam/scanner-service/internal/scanner/pipeline"
	"github.com/biznesyordam/scanner-service/internal/scanner/recognition"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestHandlers wires handlers against the given backend URL. History,
// events and jobs are nil: these tests cover the stateless endpoints.
func newTestHandlers(backendURL string) *Handlers {
	logger := testLogger()
	recognizer := recognition.NewClient(backendURL, 2*time.Second, logger)
	pl := pipeline.New(recognizer, recognizer, logger)
	return NewHandlers(pl, recognizer, nil, nil, nil, logger)
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/scanner/analyze":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"product_info": map[string]any{
					"name":       "Galaxy A54",
					"brand":      "Samsung",
					"category":   "electronics",
					"confidence": 95,
				},
			})
		case "/api/v1/scanner/generate-card":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"card": map[string]any{
					"title_uz":  "Samsung Galaxy A54 - rasmiy kafolat bilan",
					"seo_score": 90,
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyzeBase64Handler(t *testing.T) {
	t.Run("proxies backend envelope verbatim", func(t *testing.T) {
		backend := fakeBackend(t)
		defer backend.Close()
		h := newTestHandlers(backend.URL)

		req := httptest.NewRequest(http.MethodPost, "/analyze-base64",
			bytes.NewBufferString(`{"image_base64": "aW1hZ2U=", "language": "uz"}`))
		rec := httptest.NewRecorder()
		h.AnalyzeBase64(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		info, ok := body["product_info"].(map[string]any)
		require.True(t, ok, "backend envelope must pass through untouched")
		assert.Equal(t, "Galaxy A54", info["name"])
	})

	t.Run("missing image returns 400", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/analyze-base64",
			bytes.NewBufferString(`{"image_base64": ""}`))
		rec := httptest.NewRecorder()
		h.AnalyzeBase64(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
	})

	t.Run("unreachable backend returns 500, no fabricated product", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/analyze-base64",
			bytes.NewBufferString(`{"image_base64": "aW1hZ2U="}`))
		rec := httptest.NewRecorder()
		h.AnalyzeBase64(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "AI xizmati")
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/analyze-base64",
			bytes.NewBufferString(`not json`))
		rec := httptest.NewRecorder()
		h.AnalyzeBase64(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScanImageHandler(t *testing.T) {
	t.Run("multipart upload recognized", func(t *testing.T) {
		backend := fakeBackend(t)
		defer backend.Close()
		h := newTestHandlers(backend.URL)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "product.jpg")
		require.NoError(t, err)
		fw.Write([]byte("fake image bytes"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/scan-image", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ScanImage(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		product := body["product"].(map[string]any)
		assert.Equal(t, "Samsung", product["brand"])
	})

	t.Run("missing file returns 400", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/scan-image", nil)
		rec := httptest.NewRecorder()
		h.ScanImage(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFullProcessHandler(t *testing.T) {
	t.Run("complete run with AI backend", func(t *testing.T) {
		backend := fakeBackend(t)
		defer backend.Close()
		h := newTestHandlers(backend.URL)

		req := httptest.NewRequest(http.MethodPost, "/full-process",
			bytes.NewBufferString(`{"cost_price": 100000, "product_name": "Galaxy A54", "brand": "Samsung"}`))
		rec := httptest.NewRecorder()
		h.FullProcess(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])

		data := body["data"].(map[string]any)
		pricing := data["price_optimization"].(map[string]any)
		assert.Equal(t, 230000.0, pricing["optimal_price"])
		assert.Equal(t, true, pricing["is_profitable"])

		card := data["product_card"].(map[string]any)
		assert.Equal(t, "Samsung Galaxy A54 - rasmiy kafolat bilan", card["title_uz"])
		assert.Equal(t, 90.0, card["seo_score"])
	})

	t.Run("unreachable backend still produces template card", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/full-process",
			bytes.NewBufferString(`{"cost_price": 100000, "product_name": "Futbolka", "brand": "Nike", "category": "clothing"}`))
		rec := httptest.NewRecorder()
		h.FullProcess(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])

		data := body["data"].(map[string]any)
		card := data["product_card"].(map[string]any)
		assert.Contains(t, card["title_uz"], "Nike Futbolka")
		assert.Equal(t, 75.0, card["seo_score"])
	})

	t.Run("missing cost price returns 400 with user-facing message", func(t *testing.T) {
		h := newTestHandlers("http://127.0.0.1:1")

		req := httptest.NewRequest(http.MethodPost, "/full-process",
			bytes.NewBufferString(`{"product_name": "Futbolka"}`))
		rec := httptest.NewRecorder()
		h.FullProcess(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "tannarx kiritilmagan", body["error"])
	})
}

func TestValidateTextHandler(t *testing.T) {
	h := newTestHandlers("http://127.0.0.1:1")

	t.Run("short title scores 67", func(t *testing.T) {
		payload := map[string]any{
			"title":       "Qisqa sarlavha",
			"description": string(bytes.Repeat([]byte("Tavsif matni o'n besh. "), 5)),
			"keywords":    []string{"bir", "ikki", "uch"},
		}
		raw, _ := json.Marshal(payload)

		req := httptest.NewRequest(http.MethodPost, "/validate-text", bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		h.ValidateText(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])

		title := body["title"].(map[string]any)
		assert.Equal(t, false, title["valid"])
		assert.Equal(t, "Sarlavha juda qisqa (min 20 belgi)", title["message"])

		overall := body["overall"].(map[string]any)
		assert.Equal(t, 67.0, overall["score"])
		assert.Equal(t, "B", overall["grade"])
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/validate-text",
			bytes.NewBufferString(`{{`))
		rec := httptest.NewRecorder()
		h.ValidateText(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
