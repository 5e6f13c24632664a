package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/abulimen/pnode-watch/internal/alerts"
	"github.com/abulimen/pnode-watch/internal/config"
	"github.com/abulimen/pnode-watch/internal/geo"
	"github.com/abulimen/pnode-watch/internal/models"
	"github.com/abulimen/pnode-watch/internal/poller"
	"github.com/abulimen/pnode-watch/internal/seeds"
	"github.com/abulimen/pnode-watch/internal/storage"
)

const testSecret = "test-cron-secret"

func seedServer(t *testing.T, pods []models.RawPod) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, _ := json.Marshal(models.PodsResult{Pods: pods, TotalCount: len(pods)})
		json.NewEncoder(w).Encode(models.RPCResponse{JSONRPC: "2.0", Result: result, ID: 1})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T, sources []string, withStore bool) *Server {
	t.Helper()

	var store *storage.Storage
	if withStore {
		var err error
		store, err = storage.New(filepath.Join(t.TempDir(), "server.db"))
		if err != nil {
			t.Fatalf("storage.New failed: %v", err)
		}
		t.Cleanup(func() { store.Close() })
	}

	cfg := &config.Config{
		CronSecret:    testSecret,
		RetentionDays: 30,
	}

	client := seeds.NewClient(time.Second)
	var resolver *geo.Resolver
	p := poller.New(
		seeds.NewCoordinator(client, sources),
		seeds.NewCoordinator(client, sources),
		nil,
		resolver,
		store,
		alerts.NewStatusDiffer(),
		"",
	)

	return New(cfg, p, store)
}

func doRequest(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil, false)
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestNodesEndpoint(t *testing.T) {
	seed := seedServer(t, []models.RawPod{
		{Pubkey: "ABCDEFGHIJ", Address: "10.0.0.5:9001", LastSeenTimestamp: 1000, Uptime: 3600},
	})
	s := newTestServer(t, []string{seed.URL}, true)

	rec := doRequest(s, http.MethodGet, "/api/nodes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var nodes []models.DerivedNode
	if err := json.Unmarshal(rec.Body.Bytes(), &nodes); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "ABCDEFGH-5" || nodes[0].Status != models.StatusOnline {
		t.Errorf("unexpected nodes: %+v", nodes)
	}
}

func TestNodesNoSourcesConfigured(t *testing.T) {
	s := newTestServer(t, nil, true)

	rec := doRequest(s, http.MethodGet, "/api/nodes", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body errorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeNoSources {
		t.Errorf("code = %q, want %q", body.Code, codeNoSources)
	}
}

func TestNodesAllSourcesFailed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	s := newTestServer(t, []string{bad.URL}, true)

	rec := doRequest(s, http.MethodGet, "/api/nodes", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body errorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeAllFailed {
		t.Errorf("code = %q, want %q", body.Code, codeAllFailed)
	}
	if len(body.Causes) != 1 {
		t.Errorf("expected per-seed causes, got %+v", body.Causes)
	}
}

func TestCronPollRequiresSecret(t *testing.T) {
	seed := seedServer(t, []models.RawPod{{Pubkey: "KEY", Address: "1.1.1.1:6000", LastSeenTimestamp: 10}})
	s := newTestServer(t, []string{seed.URL}, true)

	if rec := doRequest(s, http.MethodPost, "/api/cron/poll", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}
	if rec := doRequest(s, http.MethodPost, "/api/cron/poll", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}
}

func TestCronPollPersists(t *testing.T) {
	seed := seedServer(t, []models.RawPod{
		{Pubkey: "ABCDEFGHIJ", Address: "10.0.0.5:9001", LastSeenTimestamp: 1000, Uptime: 3600},
	})
	s := newTestServer(t, []string{seed.URL}, true)

	rec := doRequest(s, http.MethodPost, "/api/cron/poll", testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result poller.CycleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.SnapshotID == 0 || result.Nodes != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	// History endpoint now has something to serve.
	hist := doRequest(s, http.MethodGet, "/api/history/network", "")
	if hist.Code != http.StatusOK {
		t.Fatalf("history status = %d", hist.Code)
	}
	var snapshots []storage.NetworkSnapshot
	json.Unmarshal(hist.Body.Bytes(), &snapshots)
	if len(snapshots) != 1 {
		t.Errorf("expected 1 snapshot in history, got %d", len(snapshots))
	}

	nodeHist := doRequest(s, http.MethodGet, "/api/history/nodes/ABCDEFGH-5", "")
	if nodeHist.Code != http.StatusOK {
		t.Errorf("node history status = %d, body %s", nodeHist.Code, nodeHist.Body.String())
	}
}

func TestCronPollStorageUnavailable(t *testing.T) {
	seed := seedServer(t, []models.RawPod{{Pubkey: "KEY", Address: "1.1.1.1:6000", LastSeenTimestamp: 10}})
	s := newTestServer(t, []string{seed.URL}, false)

	rec := doRequest(s, http.MethodPost, "/api/cron/poll", testSecret)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body errorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Code != codeStorageInit {
		t.Errorf("code = %q, want %q", body.Code, codeStorageInit)
	}
}

func TestNodeHistoryNotFound(t *testing.T) {
	s := newTestServer(t, nil, true)

	rec := doRequest(s, http.MethodGet, "/api/history/nodes/missing-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
