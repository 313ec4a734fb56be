// Package server exposes a document store over HTTP.
//
// Routes:
//
//	GET    /documents                 list keys
//	GET    /documents/{key}           fetch a document
//	PUT    /documents/{key}           store a document
//	DELETE /documents/{key}           remove a document
//	GET    /documents/{key}/summary   structural summary of a document
//	GET    /healthz                   liveness and build version
//
// PUT only accepts documents that parse and pass [nfio.Inspect] without
// structural problems. Errors are returned as JSON objects with an error
// message and the error code.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	errs "github.com/matzehuels/nodeflow/pkg/errors"
	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/store"
)

// DefaultMaxBody limits the size of uploaded documents.
const DefaultMaxBody = 8 << 20

// Server serves documents from a store.
type Server struct {
	store   store.Store
	codec   *nfio.Codec
	logger  *log.Logger
	maxBody int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCodec enables load diagnostics in document summaries.
func WithCodec(c *nfio.Codec) Option {
	return func(s *Server) { s.codec = c }
}

// WithMaxBody sets the upload size limit in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// New creates a server for st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{store: st, logger: log.Default(), maxBody: DefaultMaxBody}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.list)
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", s.get)
			r.Put("/", s.put)
			r.Delete("/", s.delete)
			r.Get("/summary", s.summary)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving documents", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
		Format string `json:"format"`
	}{"ok", buildinfo.Current(), nfio.Version})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), keyParam(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)
	if err := errs.ValidateKey(key); err != nil {
		s.fail(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.fail(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body"))
		return
	}

	summary, err := inspect(data)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !summary.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "document has structural problems",
			"code":     errs.ErrCodeMalformed,
			"problems": summary.Problems,
		})
		return
	}

	if err := s.store.Put(r.Context(), key, data); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), keyParam(r)); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// summaryResponse is the body of the summary route.
type summaryResponse struct {
	nfio.Summary
	Diagnostics []nfio.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), keyParam(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	summary, err := inspect(data)
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := summaryResponse{Summary: summary}
	if s.codec != nil {
		doc, _ := markup.Parse(data)
		res, _ := s.codec.Decode(doc, nfio.LoadOptions{})
		resp.Diagnostics = res.Diagnostics
	}
	writeJSON(w, http.StatusOK, resp)
}

func inspect(data []byte) (nfio.Summary, error) {
	doc, err := markup.Parse(data)
	if err != nil {
		return nfio.Summary{}, err
	}
	container, err := nfio.GraphContainer(doc)
	if err != nil {
		return nfio.Summary{}, err
	}
	return nfio.Inspect(container), nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeJSON(w, status, map[string]any{"error": errs.UserMessage(err), "code": code})
}

// keyParam returns the unescaped key of the request path.
func keyParam(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errs.ErrCodeMalformed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
