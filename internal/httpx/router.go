// Package httpx is the HTTP boundary: ingestion triggers, metrics queries
// and the thin upstream proxy the loader's API mode can target.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dealerops/funnel-etl-go/internal/config"
	"github.com/dealerops/funnel-etl-go/internal/dates"
	"github.com/dealerops/funnel-etl-go/internal/filter"
	"github.com/dealerops/funnel-etl-go/internal/ingest"
	"github.com/dealerops/funnel-etl-go/internal/metrics"
	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/observability"
	"github.com/dealerops/funnel-etl-go/internal/store"
	"github.com/dealerops/funnel-etl-go/internal/utils"
)

// Uploaded workbooks beyond this size are rejected.
const maxUploadBytes = 64 << 20

type Server struct {
	log    *slog.Logger
	cfg    config.Config
	st     *store.SnapshotStore
	loader *ingest.Loader
	client ingest.HTTPClient
	mode   metrics.InvoiceCountMode
}

func NewRouter(log *slog.Logger, cfg config.Config, st *store.SnapshotStore, loader *ingest.Loader, client ingest.HTTPClient) http.Handler {
	s := &Server{
		log:    log,
		cfg:    cfg,
		st:     st,
		loader: loader,
		client: client,
		mode:   metrics.InvoiceCountMode(cfg.InvoiceCountMode),
	}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(utils.RateLimit(cfg.RateRPS, cfg.RateBurst))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", observability.MetricsHandler())

	mux.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.Get("/api/sheet{num:[1-4]}", s.handleProxy)

	mux.Post("/ingest/run", s.handleIngestRun)
	mux.Post("/ingest/upload", s.handleUpload)

	mux.Get("/metrics/funnel", s.handleFunnel)
	mux.Get("/metrics/dealers", s.handleDealers)

	return mux
}

func (s *Server) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.LoadFromAPI(r.Context(), func(phase models.LoadPhase) {
		s.log.Debug("load status", slog.String("phase", string(phase)))
	})
	if err != nil {
		observability.LoadsTotal.WithLabelValues("api", "error").Inc()
		writeLoadError(w, err)
		return
	}
	observability.LoadsTotal.WithLabelValues("api", "ok").Inc()
	s.install(snap)
	writeJSON(w, http.StatusOK, loadSummary(snap))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	defer body.Close()

	snap, err := ingest.LoadWorkbook(body)
	if err != nil {
		observability.LoadsTotal.WithLabelValues("upload", "error").Inc()
		writeLoadError(w, err)
		return
	}
	observability.LoadsTotal.WithLabelValues("upload", "ok").Inc()
	s.install(snap)
	writeJSON(w, http.StatusOK, loadSummary(snap))
}

func (s *Server) install(snap *models.Snapshot) {
	for _, kind := range models.Kinds {
		observability.RecordsLoaded.WithLabelValues(kind.String()).Add(float64(len(snap.Set(kind))))
	}
	s.st.SetOriginal(snap)
}

func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	orig, ok := s.st.Original()
	if !ok {
		writeError(w, http.StatusConflict, "no data loaded", "run /ingest/run or /ingest/upload first")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}
	snap := filter.Apply(orig, f)
	out := struct {
		Period  models.Period  `json:"period"`
		Dealers []string       `json:"dealers"`
		Metrics models.Metrics `json:"metrics"`
	}{snap.Period, snap.Dealers, metrics.Aggregate(snap, s.mode)}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDealers(w http.ResponseWriter, r *http.Request) {
	orig, ok := s.st.Original()
	if !ok {
		writeError(w, http.StatusConflict, "no data loaded", "run /ingest/run or /ingest/upload first")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metrics.CompareDealers(orig, f))
}

func parseFilter(r *http.Request) (models.Filter, error) {
	var f models.Filter
	q := r.URL.Query()
	start, err := parseQueryDate(q.Get("from"))
	if err != nil {
		return f, err
	}
	end, err := parseQueryDate(q.Get("to"))
	if err != nil {
		return f, err
	}
	f.Start, f.End = start, end
	for _, part := range strings.Split(q.Get("dealers"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			f.Dealers = append(f.Dealers, part)
		}
	}
	return f, nil
}

// parseQueryDate accepts ISO dates and the flexible formats the sources use.
func parseQueryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, ok := dates.Parse(s); ok {
		return &t, nil
	}
	return nil, errors.New("unparseable date: " + s)
}

func loadSummary(snap *models.Snapshot) map[string]any {
	counts := make(map[string]int, len(models.Kinds))
	for _, kind := range models.Kinds {
		counts[kind.String()] = len(snap.Set(kind))
	}
	return map[string]any{
		"records": counts,
		"period":  snap.Period,
		"dealers": snap.Dealers,
	}
}

func writeLoadError(w http.ResponseWriter, err error) {
	var schemaErr *ingest.SchemaError
	if errors.As(err, &schemaErr) {
		writeError(w, http.StatusBadRequest, "invalid input data", schemaErr.Reason)
		return
	}
	var fetchErr *ingest.UpstreamFetchError
	if errors.As(err, &fetchErr) {
		writeError(w, http.StatusBadGateway, "upstream fetch failed", fetchErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "load failed", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, map[string]string{"error": msg, "details": details})
}
