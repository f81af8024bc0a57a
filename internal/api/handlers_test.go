package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/AireshBhat/nramh-lis/internal/supervisor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryStore struct{ data map[string][]byte }

func newMemoryStore() *memoryStore { return &memoryStore{data: make(map[string][]byte)} }

func (m *memoryStore) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(key string, value []byte) error {
	m.data[key] = value
	return nil
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func newTestRouter(t *testing.T) (http.Handler, *config.AnalyzerConfigStore, *supervisor.Supervisor) {
	t.Helper()
	store := config.NewAnalyzerConfigStore(newMemoryStore())
	require.NoError(t, store.Set(config.AnalyzerConfig{
		ID:       "bf6900-1",
		Protocol: config.ProtocolASTM,
		Transport: config.Transport{
			Kind: config.TransportTCP, Host: "127.0.0.1", Port: freePort(t),
		},
	}))

	bus := eventbus.New(0, discardLogger())
	t.Cleanup(bus.Close)
	sup := supervisor.New(store, bus, discardLogger())
	require.NoError(t, sup.Boot([]string{"bf6900-1"}))
	t.Cleanup(sup.Shutdown)

	return NewRouter(store, sup, discardLogger()), store, sup
}

func TestGetConfigReturnsAnalyzer(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/analyzers/bf6900-1/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body analyzerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bf6900-1", body.ID)
}

func TestGetConfigUnknownAnalyzerReturns404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/analyzers/ghost/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateConfigAppliesDisplayNameChange(t *testing.T) {
	router, store, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/analyzers/bf6900-1/", bodyReader(`{"display_name":"Ward 3 Analyzer"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cfg, ok, err := store.Get("bf6900-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ward 3 Analyzer", cfg.DisplayName)
}

func TestUpdateConfigRejectsInvalidPort(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/analyzers/bf6900-1/", bodyReader(`{"port":99999}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartStopAndStatusLifecycle(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/analyzers/bf6900-1/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/analyzers/bf6900-1/start", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/analyzers/bf6900-1/status", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "Active", status["status"])

	req = httptest.NewRequest(http.MethodPost, "/analyzers/bf6900-1/stop", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/analyzers/bf6900-1/stop", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func bodyReader(s string) io.Reader {
	return strings.NewReader(s)
}
