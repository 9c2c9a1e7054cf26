package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"descstats/internal/descriptive"
	"descstats/internal/errors"
	"descstats/internal/store"
)

// DatasetStore is the persistence the API needs.
type DatasetStore interface {
	CreateDataset(ctx context.Context, ds descriptive.Dataset) (uuid.UUID, error)
	FetchDataset(ctx context.Context, id uuid.UUID, opts descriptive.DecodeOptions) (descriptive.Dataset, error)
	ListDatasets(ctx context.Context, page, perPage int) ([]store.DatasetInfo, error)
}

// Server exposes the statistics engine over HTTP.
type Server struct {
	router *chi.Mux
	store  DatasetStore
	opts   descriptive.DecodeOptions
	log    *zap.Logger
}

// NewServer builds the router. store may be nil, in which case only the
// stateless routes are mounted. A nil log discards output.
func NewServer(st DatasetStore, opts descriptive.DecodeOptions, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{router: chi.NewRouter(), store: st, opts: opts, log: log}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: zap.NewStdLog(log), NoColor: true}))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/describe", s.handleDescribe)
	if st != nil {
		s.router.Route("/v1/datasets", func(r chi.Router) {
			r.Post("/", s.handleCreateDataset)
			r.Get("/", s.handleListDatasets)
			r.Get("/{id}", s.handleGetDataset)
			r.Get("/{id}/report", s.handleDatasetReport)
		})
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	ds, err := descriptive.Decode(r.Body, s.opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := descriptive.Describe(ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := descriptive.Decode(r.Body, s.opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.store.CreateDataset(r.Context(), ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	page := store.NormalizePositiveInt(queryInt(r, "page"), 1)
	perPage := store.NormalizePositiveInt(queryInt(r, "per_page"), 50)
	infos, err := s.store.ListDatasets(r.Context(), page, perPage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.fetch(w, r)
	if !ok {
		return
	}
	doc, err := descriptive.Encode(ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleDatasetReport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.fetch(w, r)
	if !ok {
		return
	}
	report, err := descriptive.Describe(ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (descriptive.Dataset, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, errors.InvalidInput("dataset id must be a UUID"))
		return nil, false
	}
	ds, err := s.store.FetchDataset(r.Context(), id, s.opts)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return ds, true
}

func queryInt(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}
