package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustline/internal/engine"
	"trustline/pkg/platform/httputil"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for engine operations.
type Service interface {
	Evaluate(ctx context.Context, req engine.EvaluateRequest) (*engine.Decision, error)
	RequireTrustline(ctx context.Context, req engine.EvaluateRequest) (*engine.Decision, error)
}

// Handler wires trustline endpoints to the validation engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an engine handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts trustline endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/trustline/check", h.HandleCheck)
	r.Post("/trustline/require", h.HandleRequire)
}

// HandleCheck handles POST /v1/trustline/check. The decision itself is
// always a 200: denials are answers, not errors.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger)
	if !ok {
		return
	}

	decision, err := h.service.Evaluate(ctx, req.Parsed())
	if err != nil {
		h.logger.ErrorContext(ctx, "trustline check failed",
			"request_id", requestcontext.RequestID(ctx),
			"sender", req.Sender,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "trustline checked",
		"request_id", requestcontext.RequestID(ctx),
		"sender", req.Sender,
		"allowed", decision.Allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromDecision(decision))
}

// HandleRequire handles POST /v1/trustline/require. Allow answers 204;
// denials answer 403 with the coded refusal cause.
func (h *Handler) HandleRequire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.service.RequireTrustline(ctx, req.Parsed()); err != nil {
		h.logger.InfoContext(ctx, "trustline refused",
			"request_id", requestcontext.RequestID(ctx),
			"sender", req.Sender,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
