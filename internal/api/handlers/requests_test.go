package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facegate/internal/approval"
	"github.com/your-org/facegate/internal/gallery"
	"github.com/your-org/facegate/pkg/dto"
)

type stubExtractor struct {
	embeddings [][]float32
}

func (s *stubExtractor) Extract([]byte) ([][]float32, error) {
	return s.embeddings, nil
}

type memBlob struct {
	objects map[string][]byte
}

func (m *memBlob) PutObject(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memBlob) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memBlob) DeleteObject(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newTestRouter(extractor approval.Extractor) *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := approval.NewEngine(
		approval.NewStore(),
		gallery.NewCache(),
		&memBlob{objects: make(map[string][]byte)},
		extractor,
		nil,
		nil,
		approval.Options{Threshold: 0.6, BaseURL: "http://gate.test", PollInterval: time.Second},
	)

	r := gin.New()
	submitH := NewSubmissionHandler(engine)
	reqH := NewRequestHandler(engine)
	r.POST("/v1/submissions", submitH.Submit)
	r.GET("/v1/requests/:id", reqH.Status)
	r.GET("/v1/requests/:id/approve", reqH.Approve)
	r.GET("/v1/requests/:id/deny", reqH.Deny)
	r.GET("/v1/requests/:id/preview", reqH.Preview)
	return r
}

func submitImage(t *testing.T, r *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "face.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-a-real-jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmissionPendingFlow(t *testing.T) {
	r := newTestRouter(&stubExtractor{embeddings: [][]float32{{1, 1, 1, 1}}})

	w := submitImage(t, r)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Matched)
	assert.True(t, resp.Pending)
	require.NotEmpty(t, resp.RequestID)
	assert.Equal(t, int64(1000), resp.PollAfterMS)

	// pending image is previewable
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/"+resp.RequestID+"/preview", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "not-a-real-jpeg", w.Body.String())

	// approve via the GET link, twice; idempotent 200 both times
	for i := 0; i < 2; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/"+resp.RequestID+"/approve", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var status dto.RequestStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "approved", status.Status)
	}

	// a later deny cannot overwrite the terminal state
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/"+resp.RequestID+"/deny", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.RequestStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "approved", status.Status)

	// the requester's poll observes the resolution
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/"+resp.RequestID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "approved", status.Status)

	// and the preview is gone once resolved
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/requests/"+resp.RequestID+"/preview", nil))
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestSubmissionMultipleFaces(t *testing.T) {
	r := newTestRouter(&stubExtractor{embeddings: [][]float32{{1, 0}, {0, 1}}})

	w := submitImage(t, r)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["matched"])
	assert.Equal(t, "multiple_faces_detected", resp["error"])
}

func TestSubmissionNoFace(t *testing.T) {
	r := newTestRouter(&stubExtractor{})

	w := submitImage(t, r)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "no_face_detected", resp["error"])
}

func TestSubmissionMissingImage(t *testing.T) {
	r := newTestRouter(&stubExtractor{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/submissions", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRequestIs404(t *testing.T) {
	r := newTestRouter(&stubExtractor{})

	for _, path := range []string{
		"/v1/requests/ghost",
		"/v1/requests/ghost/approve",
		"/v1/requests/ghost/deny",
		"/v1/requests/ghost/preview",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
