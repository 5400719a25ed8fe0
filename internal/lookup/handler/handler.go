package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/geo"
	"registrar/internal/lookup"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	"registrar/internal/registration/derive"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
)

// Cache is the lookup cache as the HTTP layer uses it.
type Cache interface {
	Get(ctx context.Context, name string) lookup.Result
	Children(ctx context.Context, name string, parentID int64) lookup.Result
	Label(ctx context.Context, name string, id int64) (string, bool)
	Invalidate(ctx context.Context, name string) error
}

var lookupName = regexp.MustCompile(`^[a-z][a-z0-9-]{0,63}$`)

// maxRequestBytes caps label and chain bodies; they carry ids only.
const maxRequestBytes = 1 << 20

// Handler serves cached reference data and geographic chain checks.
type Handler struct {
	logger   *slog.Logger
	cache    Cache
	labeler  *derive.Labeler
	metrics  *metrics.Metrics
	maxBytes int64
}

func New(cache Cache, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		cache:    cache,
		labeler:  derive.NewLabeler(cache),
		metrics:  m,
		maxBytes: maxRequestBytes,
	}
}

// Register registers the lookup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireToken(h.logger))
		r.Get("/lookups/{name}", h.handleGet)
		r.Post("/lookups/{name}/labels", h.handleLabels)
		r.Delete("/lookups/{name}", h.handleInvalidate)
		r.Post("/geo/chain", h.handleChain)
		r.Post("/geo/select", h.handleSelect)
	})
}

type lookupResponse struct {
	Name      string          `json:"name"`
	Entities  []lookup.Entity `json:"entities"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := nameParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var res lookup.Result
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parentID <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "parent_id must be a positive integer"))
			return
		}
		res = h.cache.Children(ctx, name, parentID)
	} else {
		res = h.cache.Get(ctx, name)
	}
	if res.Failed() {
		h.logger.WarnContext(ctx, "lookup unavailable",
			"request_id", middleware.GetRequestID(ctx),
			"lookup", name,
			"error", res.Err,
		)
		httputil.WriteError(w, dErrors.Wrap(res.Err, dErrors.CodeTransport, "lookup "+name+" is unavailable"))
		return
	}

	entities := res.Entities
	if entities == nil {
		entities = []lookup.Entity{}
	}
	httputil.WriteJSON(w, http.StatusOK, lookupResponse{Name: name, Entities: entities, FetchedAt: res.FetchedAt})
}

type labelsRequest struct {
	IDs []int64 `json:"ids"`
}

type labelResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// handleLabels resolves ids to display labels. Unknown ids, and every id of
// a table that cannot be loaded, resolve to "N/A".
func (h *Handler) handleLabels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := nameParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req labelsRequest
	if !h.decode(w, r, "labels", &req) {
		return
	}

	labels := h.labeler.Labels(ctx, name, req.IDs)
	out := make([]labelResponse, len(req.IDs))
	for i, id := range req.IDs {
		out[i] = labelResponse{ID: id, Label: labels[i]}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"name": name, "labels": out})
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := nameParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.cache.Invalidate(ctx, name); err != nil {
		h.logger.ErrorContext(ctx, "failed to invalidate lookup",
			"request_id", middleware.GetRequestID(ctx),
			"lookup", name,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to invalidate lookup"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chainResponse struct {
	Chain      geo.Chain                  `json:"chain"`
	Verified   bool                       `json:"verified"`
	Unverified []string                   `json:"unverified_levels"`
	Options    map[string][]lookup.Entity `json:"options"`
}

// handleChain restores a saved address chain and reports which levels no
// longer sit under their parent, with the options on offer at each level.
func (h *Handler) handleChain(w http.ResponseWriter, r *http.Request) {
	var chain geo.Chain
	if !h.decode(w, r, "chain", &chain) {
		return
	}
	cat, ok := h.catalog(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newChainResponse(geo.Restore(cat, chain)))
}

type selectRequest struct {
	Chain geo.Chain `json:"chain"`
	Level string    `json:"level"`
	ID    int64     `json:"id"`
}

// handleSelect applies one pick to a chain: the level takes id, every level
// below it is cleared and the child level's options are recomputed. An id of
// zero clears the level. Picks outside the current parent are rejected.
func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !h.decode(w, r, "select", &req) {
		return
	}
	level, err := geo.ParseLevel(req.Level)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cat, ok := h.catalog(w, r)
	if !ok {
		return
	}
	sel, err := geo.Restore(cat, req.Chain).Select(level, req.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newChainResponse(sel))
}

func newChainResponse(sel geo.Selector) chainResponse {
	resp := chainResponse{
		Chain:      sel.Chain(),
		Verified:   sel.Verified(),
		Unverified: []string{},
		Options:    make(map[string][]lookup.Entity, len(geo.Levels())),
	}
	for _, l := range sel.UnverifiedLevels() {
		resp.Unverified = append(resp.Unverified, l.String())
	}
	for _, l := range geo.Levels() {
		opts := sel.Options(l)
		if opts == nil {
			opts = []lookup.Entity{}
		}
		resp.Options[l.String()] = opts
	}
	return resp
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) (geo.Catalog, bool) {
	ctx := r.Context()
	cat, err := geo.LoadCatalog(ctx, h.cache)
	if err != nil {
		h.logger.WarnContext(ctx, "geographic catalog unavailable",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return geo.Catalog{}, false
	}
	return cat, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, kind string, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid "+kind+" request",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func nameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if !lookupName.MatchString(name) {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid lookup name")
	}
	return name, nil
}
