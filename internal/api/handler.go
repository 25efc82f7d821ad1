// Package api provides the HTTP handler for the metadata catalog. It is kept
// separate from cmd/server so that tests can spin up an in-process catalog
// via httptest.NewServer.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"metacat/internal/domain"
	"metacat/internal/service/catalog"
)

// HandlerConfig holds the parameters needed to build the catalog HTTP handler.
type HandlerConfig struct {
	Registry *catalog.RegistryService
	Lineage  *catalog.LineageService
	Search   *catalog.SearchService
	// SearchMaxResults caps search result counts server-side. 0 means no cap.
	SearchMaxResults int
	Logger           *slog.Logger
}

// Handler serves the catalog's /v1 routes.
type Handler struct {
	registry         *catalog.RegistryService
	lineage          *catalog.LineageService
	search           *catalog.SearchService
	searchMaxResults int
	logger           *slog.Logger
	startTime        time.Time
}

// NewHandler builds the catalog HTTP handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:         cfg.Registry,
		lineage:          cfg.Lineage,
		search:           cfg.Search,
		searchMaxResults: cfg.SearchMaxResults,
		logger:           logger,
		startTime:        time.Now(),
	}
}

// Routes mounts every catalog endpoint on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/datasets", h.handleRegisterDataset)
		r.Get("/datasets", h.handleListDatasets)
		r.Get("/datasets/{fqn}", h.handleGetDataset)
		r.Delete("/datasets/{fqn}", h.handleDeleteDataset)
		r.Get("/datasets/{fqn}/lineage", h.handleGetLineage)
		r.Post("/lineage", h.handleAddLineage)
		r.Get("/search", h.handleSearch)
	})

	return r
}

type columnPayload struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type datasetPayload struct {
	ID          string          `json:"id"`
	FQN         string          `json:"fqn"`
	Layer       string          `json:"layer"`
	Columns     []columnPayload `json:"columns"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func datasetToPayload(ds domain.Dataset) datasetPayload {
	cols := make([]columnPayload, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		cols = append(cols, columnPayload{Name: c.Name, Type: c.Type})
	}
	return datasetPayload{
		ID:          ds.ID,
		FQN:         ds.FQN.String(),
		Layer:       string(ds.Layer),
		Columns:     cols,
		Description: ds.Description,
		CreatedAt:   ds.CreatedAt,
	}
}

func (h *Handler) handleRegisterDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FQN         string          `json:"fqn"`
		Layer       string          `json:"layer"`
		Columns     []columnPayload `json:"columns"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cols := make([]domain.Column, 0, len(req.Columns))
	for _, c := range req.Columns {
		cols = append(cols, domain.Column{Name: c.Name, Type: c.Type})
	}

	ds, err := h.registry.Register(r.Context(), domain.CreateDatasetRequest{
		FQN:         req.FQN,
		Layer:       req.Layer,
		Columns:     cols,
		Description: req.Description,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, datasetToPayload(*ds))
}

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	page := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_results must be an integer")
			return
		}
		page.MaxResults = n
	}

	datasets, total, err := h.registry.List(r.Context(), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	payload := make([]datasetPayload, 0, len(datasets))
	for _, ds := range datasets {
		payload = append(payload, datasetToPayload(ds))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasets":        payload,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

func (h *Handler) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.registry.Resolve(r.Context(), chi.URLParam(r, "fqn"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetToPayload(*ds))
}

func (h *Handler) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), chi.URLParam(r, "fqn")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddLineage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UpstreamFQN   string `json:"upstream_fqn"`
		DownstreamFQN string `json:"downstream_fqn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edge, err := h.lineage.AddEdge(r.Context(), req.UpstreamFQN, req.DownstreamFQN)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":             edge.ID,
		"upstream_fqn":   edge.UpstreamFQN,
		"downstream_fqn": edge.DownstreamFQN,
		"created_at":     edge.CreatedAt,
	})
}

func (h *Handler) handleGetLineage(w http.ResponseWriter, r *http.Request) {
	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = n
	}

	node, err := h.lineage.Lineage(r.Context(), chi.URLParam(r, "fqn"), depth)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	upstream := make([]datasetPayload, 0, len(node.Upstream))
	for _, ds := range node.Upstream {
		upstream = append(upstream, datasetToPayload(ds))
	}
	downstream := make([]datasetPayload, 0, len(node.Downstream))
	for _, ds := range node.Downstream {
		downstream = append(downstream, datasetToPayload(ds))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fqn":        node.FQN,
		"upstream":   upstream,
		"downstream": downstream,
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts := domain.SearchOptions{
		IncludeLineage: r.URL.Query().Get("include_lineage") == "true",
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "max_results must be a non-negative integer")
			return
		}
		opts.MaxResults = n
	}
	if h.searchMaxResults > 0 && (opts.MaxResults == 0 || opts.MaxResults > h.searchMaxResults) {
		opts.MaxResults = h.searchMaxResults
	}
	if raw := r.URL.Query().Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			field := domain.MatchField(strings.TrimSpace(f))
			switch field {
			case domain.MatchTableName, domain.MatchColumnName, domain.MatchSchemaName, domain.MatchDatabaseName:
				opts.Fields = append(opts.Fields, field)
			default:
				writeError(w, http.StatusBadRequest, "unknown search field "+strconv.Quote(string(field)))
				return
			}
		}
	}

	results, err := h.search.Search(r.Context(), r.URL.Query().Get("q"), opts)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		entry := map[string]interface{}{
			"dataset":     datasetToPayload(res.Dataset),
			"match_field": string(res.MatchField),
			"priority":    res.Priority,
		}
		if opts.IncludeLineage {
			entry["upstream_fqns"] = emptyIfNil(res.UpstreamFQNs)
			entry["downstream_fqns"] = emptyIfNil(res.DownstreamFQNs)
		}
		payload = append(payload, entry)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": payload,
		"count":   len(payload),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// writeDomainError logs server faults and renders the mapped status for the rest.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
