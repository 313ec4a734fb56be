package store_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/server"
	"github.com/matzehuels/nodeflow/pkg/store"
)

const doc = `<nodeflow version="1"><graph>
<node type="Constant" name="k" x="0" y="0" id="0"><data/></node>
</graph></nodeflow>`

func remote(t *testing.T) (store.Store, store.Store) {
	t.Helper()
	backing := store.NewMemoryStore()
	srv := httptest.NewServer(server.New(backing, server.WithLogger(log.New(io.Discard))).Handler())
	t.Cleanup(srv.Close)

	s, err := store.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, backing
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, backing := remote(t)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Put(ctx, "team:flow one", []byte(doc)))
	got, err := backing.Get(ctx, "team:flow one")
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))

	got, err = s.Get(ctx, "team:flow one")
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))

	keys, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"team:flow one"}, keys)

	require.NoError(t, s.Delete(ctx, "team:flow one"))
	_, err = s.Get(ctx, "team:flow one")
	assert.True(t, store.IsNotFound(err), "got %v", err)
	assert.True(t, store.IsNotFound(s.Delete(ctx, "team:flow one")))
}

func TestHTTPStoreServerRejects(t *testing.T) {
	ctx := context.Background()
	s, _ := remote(t)

	err := s.Put(ctx, "broken", []byte("<nodeflow/>"))
	assert.True(t, errs.Is(err, errs.ErrCodeMalformed), "got %v", err)

	err = s.Put(ctx, "../up", []byte(doc))
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput), "got %v", err)
}

func TestHTTPStoreRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	s := store.NewHTTPStore(srv.URL, srv.Client())
	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPStoreGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := store.NewHTTPStore(srv.URL, srv.Client())
	_, err := s.Get(context.Background(), "k")
	assert.True(t, errs.Is(err, errs.ErrCodeInternal), "got %v", err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}
