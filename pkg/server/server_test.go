package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/config"
	"github.com/soundprediction/memograph/pkg/driver"
	"github.com/soundprediction/memograph/pkg/types"
)

// stubEngine implements memograph.Memograph with scripted returns.
type stubEngine struct {
	learnResult *memograph.LearnResult
	learnErr    error
	batchResult *memograph.BatchResult
	askResult   *memograph.AskResult
	askErr      error
	document    *types.Document
	deleted     bool
	pingErr     error
}

func (s *stubEngine) Learn(context.Context, string, *memograph.LearnOptions) (*memograph.LearnResult, error) {
	return s.learnResult, s.learnErr
}

func (s *stubEngine) LearnBatch(context.Context, []string, *memograph.BatchOptions) (*memograph.BatchResult, error) {
	return s.batchResult, nil
}

func (s *stubEngine) Ask(context.Context, string, *memograph.AskOptions) (*memograph.AskResult, error) {
	return s.askResult, s.askErr
}

func (s *stubEngine) GetDocument(context.Context, string) (*types.Document, error) {
	return s.document, nil
}

func (s *stubEngine) DeleteDocument(context.Context, string) (bool, error) {
	return s.deleted, nil
}

func (s *stubEngine) GetStats(context.Context) (*driver.GraphStats, error) {
	return &driver.GraphStats{DocumentCount: 3, EntityCount: 7}, nil
}

func (s *stubEngine) CreateIndices(context.Context) error { return nil }
func (s *stubEngine) Ping(context.Context) error          { return s.pingErr }
func (s *stubEngine) Close(context.Context) error         { return nil }

func newTestServer(engine *stubEngine) *Server {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	srv := New(cfg, engine, nil)
	srv.Setup()
	return srv
}

func doRequest(srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&stubEngine{})
	w := doRequest(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memograph", body["service"])
}

func TestReadinessCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&stubEngine{})
		w := doRequest(srv, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store down", func(t *testing.T) {
		srv := newTestServer(&stubEngine{pingErr: errors.New("connection refused")})
		w := doRequest(srv, http.MethodGet, "/ready", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestLearnEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &stubEngine{learnResult: &memograph.LearnResult{
			Document: &types.Document{ID: "doc-1"},
			Created:  memograph.CreatedCounts{Documents: 1, Entities: 2, Relationships: 1},
		}}
		srv := newTestServer(engine)

		w := doRequest(srv, http.MethodPost, "/api/v1/learn", LearnRequest{Text: "Alice works for Acme Corp."})
		require.Equal(t, http.StatusOK, w.Code)

		var result memograph.LearnResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "doc-1", result.Document.ID)
		assert.Equal(t, 2, result.Created.Entities)
	})

	t.Run("missing text", func(t *testing.T) {
		srv := newTestServer(&stubEngine{})
		w := doRequest(srv, http.MethodPost, "/api/v1/learn", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no scope", func(t *testing.T) {
		srv := newTestServer(&stubEngine{learnErr: memograph.ErrNoScope})
		w := doRequest(srv, http.MethodPost, "/api/v1/learn", LearnRequest{Text: "x"})
		assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	})
}

func TestAskEndpoint(t *testing.T) {
	engine := &stubEngine{askResult: &memograph.AskResult{Answer: "Acme Corp."}}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodPost, "/api/v1/ask", AskRequest{Query: "who does Alice work for?"})
	require.Equal(t, http.StatusOK, w.Code)

	var result memograph.AskResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Acme Corp.", result.Answer)
}

func TestDocumentEndpoints(t *testing.T) {
	t.Run("get found", func(t *testing.T) {
		srv := newTestServer(&stubEngine{document: &types.Document{ID: "doc-1", Text: "x", ScopeID: "s"}})
		w := doRequest(srv, http.MethodGet, "/api/v1/documents/doc-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		srv := newTestServer(&stubEngine{})
		w := doRequest(srv, http.MethodGet, "/api/v1/documents/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete missing", func(t *testing.T) {
		srv := newTestServer(&stubEngine{deleted: false})
		w := doRequest(srv, http.MethodDelete, "/api/v1/documents/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(&stubEngine{})
	w := doRequest(srv, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats driver.GraphStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.DocumentCount)
}
