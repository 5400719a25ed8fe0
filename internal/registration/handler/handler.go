package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/platform/metrics"
	"registrar/internal/platform/middleware"
	"registrar/internal/registration/derive"
	"registrar/internal/registration/form"
	"registrar/internal/registration/journal"
	"registrar/internal/registration/pipeline"
	"registrar/internal/registration/service"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Register(ctx context.Context, req service.Request) (service.Outcome, error)
	Attempt(ctx context.Context, id domain.AttemptID) (journal.Entry, error)
}

// Handler handles registration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	labeler  *derive.Labeler
	metrics  *metrics.Metrics
	maxBytes int64
}

// New creates a new registration Handler. Bodies carry base64 images, so the
// size limit is generous.
func New(svc Service, labeler *derive.Labeler, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  svc,
		labeler:  labeler,
		metrics:  m,
		maxBytes: 64 << 20,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(2 * time.Minute))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireToken(h.logger))
		r.Post("/registrations/{role}", h.handleRegister)
		r.Post("/registrations/{role}/summary", h.handleSummary)
		r.Get("/registrations/attempts/{attemptID}", h.handleGetAttempt)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	kind, err := domain.ParseRoleKind(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	svcReq, err := req.toServiceRequest(kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.Register(ctx, svcReq)
	if err != nil {
		h.logger.WarnContext(ctx, "registration not submitted",
			"request_id", requestID,
			"role", kind.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration processed",
		"request_id", requestID,
		"attempt_id", out.Result.AttemptID.String(),
		"status", string(out.Result.Status),
	)
	httputil.WriteJSON(w, statusFor(out.Result), toResponse(out))
}

// statusFor maps a settled result onto the response status: 201 when
// everything landed, 207 when the person exists but any dependent step
// failed, 422 for validation and 502 when the person was not created.
func statusFor(res pipeline.Result) int {
	switch {
	case res.Status == pipeline.StatusSuccess:
		return http.StatusCreated
	case res.Status == pipeline.StatusPartialFailure:
		return http.StatusMultiStatus
	case res.IsValidationFailure():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// handleSummary returns the derived review view of a registration without
// submitting anything.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := domain.ParseRoleKind(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	reg, err := req.toRegistration(kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := form.FromRegistration(reg)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary := h.labeler.Summarize(ctx, st, requestcontext.Now(ctx))
	resp := map[string]any{"summary": summary}
	if err := st.Validate(); err != nil {
		resp["missing"] = dErrors.FieldsOf(err)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAttemptID(chi.URLParam(r, "attemptID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.service.Attempt(ctx, id)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load registration attempt",
				"request_id", middleware.GetRequestID(ctx),
				"attempt_id", id.String(),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAttemptResponse(entry))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (registrationRequest, bool) {
	var req registrationRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid registration request",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return registrationRequest{}, false
	}
	return req, true
}
