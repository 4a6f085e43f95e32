package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wine-concierge-be/internal/bootstrap"
	"wine-concierge-be/internal/config"
	"wine-concierge-be/internal/controller"
	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/events"
	"wine-concierge-be/pkg/metrics"
	"wine-concierge-be/pkg/rag/indexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConcierge struct {
	lastReq *dto.AskRequest
}

func (s *stubConcierge) Ask(ctx context.Context, req *dto.AskRequest) *dto.AskResponse {
	s.lastReq = req
	if strings.TrimSpace(req.Query) == "" {
		return &dto.AskResponse{Response: apperr.Render(apperr.ErrEmptyQuery)}
	}
	return &dto.AskResponse{Response: "answer to " + req.Query}
}

func (s *stubConcierge) Weather(ctx context.Context, location string) *dto.WeatherResponse {
	if location == "" {
		location = "Napa Valley"
	}
	return &dto.WeatherResponse{Location: location, Response: "Weather in " + location}
}

type stubDocuments struct {
	uploadErr error
	uploaded  string
	body      string
}

func (s *stubDocuments) Upload(ctx context.Context, filename string, content io.Reader) (*dto.UploadResponse, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	data, _ := io.ReadAll(content)
	s.uploaded, s.body = filename, string(data)
	return &dto.UploadResponse{Response: "✅ " + filename + " uploaded and index updated.", Filename: filename}, nil
}

func (s *stubDocuments) List(ctx context.Context) ([]*dto.DocumentResponse, error) {
	return []*dto.DocumentResponse{{Name: "hours.txt", Indexed: true}}, nil
}

func (s *stubDocuments) RequestRebuild(ctx context.Context, reason string) (*dto.RebuildRequestedResponse, error) {
	return &dto.RebuildRequestedResponse{Message: "Index rebuild queued.", Reason: reason}, nil
}

func (s *stubDocuments) SyncCatalog(ctx context.Context) error { return nil }

type stubIndex struct{}

func (stubIndex) Ensure(ctx context.Context) error { return nil }

func (stubIndex) Refresh(ctx context.Context, reason string) (*indexer.BuildResult, error) {
	return &indexer.BuildResult{}, nil
}

func (stubIndex) Status(ctx context.Context) (*dto.IndexStatusResponse, error) {
	return &dto.IndexStatusResponse{Ready: true, Chunks: 7, Sources: []string{"hours.txt"}}, nil
}

func (stubIndex) HandleIndexRebuilt(ctx context.Context, event events.BaseEvent) error { return nil }

func newTestServer(t *testing.T, docs *stubDocuments) (*Server, *stubConcierge) {
	t.Helper()
	concierge := &stubConcierge{}
	cfg := &config.Config{App: config.AppConfig{Port: "0", CorsAllowedOrigins: "*", UploadMaxBytes: 1024}}
	container := &bootstrap.Container{
		ConciergeController: controller.NewConciergeController(concierge),
		DocumentController:  controller.NewDocumentController(docs, stubIndex{}),
		Logger:              logger.NewNopLogger(),
		Metrics:             metrics.New(),
	}
	return New(cfg, container), concierge
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t, &stubDocuments{})

	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.AskResponse
	decode(t, resp, &body)
	assert.Equal(t, "🍷 Wine Concierge API is running!", body.Response)
}

func TestAsk(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "answers", body: `{"query":"When do you open?","location":"Sonoma"}`, want: "answer to When do you open?"},
		{name: "empty query", body: `{"query":"  "}`, want: "⚠️ Please provide a question."},
		{name: "malformed body", body: `{"query":`, want: "⚠️ Please provide a question."},
		{name: "too long", body: `{"query":"` + strings.Repeat("a", 4001) + `"}`, want: "⚠️ query must be at most 4000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubDocuments{})
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := srv.GetApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body dto.AskResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.want, body.Response)
		})
	}
}

func TestWeather(t *testing.T) {
	srv, _ := newTestServer(t, &stubDocuments{})

	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/weather?location=Paris", nil))
	require.NoError(t, err)

	var body dto.AskResponse
	decode(t, resp, &body)
	assert.Equal(t, "Weather in Paris", body.Response)
}

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	docs := &stubDocuments{}
	srv, _ := newTestServer(t, docs)

	resp, err := srv.GetApp().Test(multipartUpload(t, "file", "hours.txt", "Open 10-5"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.UploadResponse
	decode(t, resp, &body)
	assert.Equal(t, "✅ hours.txt uploaded and index updated.", body.Response)
	assert.Equal(t, "Open 10-5", docs.body)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		err    error
		status int
		want   string
	}{
		{
			name:   "unsupported type",
			field:  "file",
			err:    apperr.New(apperr.ErrUnsupportedFile, 400, "only .txt and .pdf files are supported"),
			status: http.StatusBadRequest,
			want:   "⚠️ Only .txt and .pdf files are supported.",
		},
		{
			name:   "missing file field",
			field:  "document",
			status: http.StatusBadRequest,
			want:   "⚠️ A file field named \"file\" is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubDocuments{uploadErr: tt.err})

			resp, err := srv.GetApp().Test(multipartUpload(t, tt.field, "notes.docx", "x"))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body dto.AskResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.want, body.Response)
		})
	}
}

func TestOperationalRoutes(t *testing.T) {
	srv, _ := newTestServer(t, &stubDocuments{})
	app := srv.GetApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/index/status", nil))
	require.NoError(t, err)
	var status struct {
		Success bool                    `json:"success"`
		Data    dto.IndexStatusResponse `json:"data"`
	}
	decode(t, resp, &status)
	assert.True(t, status.Success)
	assert.Equal(t, 7, status.Data.Chunks)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/index/rebuild?reason=nightly", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var queued struct {
		Code int                          `json:"code"`
		Data dto.RebuildRequestedResponse `json:"data"`
	}
	decode(t, resp, &queued)
	assert.Equal(t, 202, queued.Code)
	assert.Equal(t, "nightly", queued.Data.Reason)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubDocuments{})
	app := srv.GetApp()

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `http_requests_total{method="GET",path="/",status="200"} 1`)
}
