package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"trustline/internal/policy/models"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for policy registry operations.
type Service interface {
	Register(ctx context.Context, client common.Address, mode domain.Mode, checks []domain.CheckKind, sources []string) (*models.Policy, error)
	Get(ctx context.Context, client common.Address) (*models.Policy, error)
}

// Handler wires policy registry endpoints to the policy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a policy handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts policy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policies", h.HandleRegister)
	r.Get("/policies/{client}", h.HandleGet)
}

// HandleRegister handles POST /v1/policies.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	policy, err := h.service.Register(ctx, req.ParsedClient(), req.ParsedMode(), req.ParsedChecks(), req.SanctionSources)
	if err != nil {
		h.logger.WarnContext(ctx, "policy registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"client", req.Client,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy registered",
		"request_id", requestcontext.RequestID(ctx),
		"client", req.Client,
		"mode", policy.Mode,
	)

	httputil.WriteJSON(w, http.StatusCreated, FromPolicy(policy))
}

// HandleGet handles GET /v1/policies/{client}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "client")
	if !common.IsHexAddress(raw) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "client must be a hex address"))
		return
	}

	policy, err := h.service.Get(ctx, common.HexToAddress(raw))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPolicy(policy))
}
