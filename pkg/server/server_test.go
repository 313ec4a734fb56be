package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	"github.com/matzehuels/nodeflow/pkg/codec"
	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/meta"
	"github.com/matzehuels/nodeflow/pkg/nodes"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/store"
)

const validDoc = `<nodeflow version="1"><graph>
<node type="Constant" name="k" x="0" y="0" id="0"><data><property type="float64" name="value" value="3"/></data></node>
<node type="Display" name="d" x="100" y="0" id="1"><data/></node>
<edge fromItem="0" fromIndex="0" toItem="1" toIndex="0" transportType="float64"/>
<edge fromItem="0" fromIndex="0" toItem="5" toIndex="0" transportType="float64"/>
</graph></nodeflow>`

func newServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	quiet := log.New(io.Discard)

	reg := meta.NewRegistry()
	table := codec.NewTable()
	catalog := graph.NewCatalog()
	require.NoError(t, nodes.Install(reg, table, catalog))
	c := nfio.New(codec.New(reg, codec.WithTable(table), codec.WithLogger(quiet)), catalog)

	st := store.NewMemoryStore()
	srv := httptest.NewServer(New(st, WithLogger(quiet), WithCodec(c)).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestDocumentLifecycle(t *testing.T) {
	srv, _ := newServer(t)
	base := srv.URL + "/documents"

	resp, body := do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"keys":[]}`, string(body))

	resp, body = do(t, http.MethodPut, base+"/demo", validDoc)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var summary nfio.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 2, summary.Nodes)
	assert.Equal(t, 1, summary.DanglingEdges)

	resp, body = do(t, http.MethodGet, base+"/demo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, validDoc, string(body))

	resp, body = do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"keys":["demo"]}`, string(body))

	resp, body = do(t, http.MethodGet, base+"/demo/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sr struct {
		Nodes       int               `json:"nodes"`
		Diagnostics []nfio.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(body, &sr))
	assert.Equal(t, 2, sr.Nodes)
	require.Len(t, sr.Diagnostics, 1)
	assert.Equal(t, errs.ErrCodeDanglingReference, sr.Diagnostics[0].Code)

	resp, _ = do(t, http.MethodDelete, base+"/demo", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, http.MethodGet, base+"/demo", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), string(errs.ErrCodeNotFound))
}

func TestPutRejectsBadDocuments(t *testing.T) {
	srv, st := newServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not xml", "hello", http.StatusUnprocessableEntity},
		{"wrong root", `<project version="1"><graph/></project>`, http.StatusUnprocessableEntity},
		{"wrong version", `<nodeflow version="9"><graph/></nodeflow>`, http.StatusUnprocessableEntity},
		{"duplicate ids", `<nodeflow version="1"><graph><node type="A" id="0"/><node type="B" id="0"/></graph></nodeflow>`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+"/documents/bad", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(body))
		})
	}

	keys, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestPutRejectsBadKey(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := do(t, http.MethodPut, srv.URL+"/documents/a..b", validDoc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutBodyLimit(t *testing.T) {
	st := store.NewMemoryStore()
	srv := httptest.NewServer(New(st, WithLogger(log.New(io.Discard)), WithMaxBody(16)).Handler())
	defer srv.Close()

	resp, _ := do(t, http.MethodPut, srv.URL+"/documents/big", validDoc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, buildinfo.Version, got["version"])
	assert.Equal(t, buildinfo.Commit, got["commit"])
	assert.Equal(t, nfio.Version, got["format"])
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	srv, _ := newServer(t)
	do(t, http.MethodGet, srv.URL+"/documents", "")
	do(t, http.MethodGet, srv.URL+"/documents/none", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.statuses)
}

func TestListenAndServeStops(t *testing.T) {
	s := New(store.NewMemoryStore(), WithLogger(log.New(io.Discard)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
