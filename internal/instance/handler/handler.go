package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"trustline/internal/instance"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/httputil"
	"trustline/pkg/requestcontext"
)

// Service defines the interface for instance operations.
type Service interface {
	Create(ctx context.Context, client, logic, owner common.Address) (*instance.Instance, error)
	Get(ctx context.Context, client common.Address) (*instance.Instance, error)
	Upgrade(ctx context.Context, client, logic common.Address) (*instance.Instance, error)
}

// Handler wires instance endpoints to the instance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an instance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts instance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/instances", h.HandleCreate)
	r.Get("/instances/{client}", h.HandleGet)
	r.Post("/instances/{client}/upgrade", h.HandleUpgrade)
}

// CreateRequest is the HTTP request body for POST /v1/instances.
type CreateRequest struct {
	Client string `json:"client"`
	Logic  string `json:"logic"`
	Owner  string `json:"owner"`

	parsedClient common.Address
	parsedLogic  common.Address
	parsedOwner  common.Address
}

// Validate validates and parses the request.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.parsedClient, err = parseAddress(r.Client, "client"); err != nil {
		return err
	}
	if r.parsedLogic, err = parseAddress(r.Logic, "logic"); err != nil {
		return err
	}
	if r.parsedOwner, err = parseAddress(r.Owner, "owner"); err != nil {
		return err
	}
	return nil
}

// UpgradeRequest is the HTTP request body for POST /v1/instances/{client}/upgrade.
type UpgradeRequest struct {
	Logic string `json:"logic"`

	parsedLogic common.Address
}

// Validate validates and parses the request.
func (r *UpgradeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	r.parsedLogic, err = parseAddress(r.Logic, "logic")
	return err
}

// InstanceResponse is the HTTP representation of an instance.
type InstanceResponse struct {
	Client     string    `json:"client"`
	Proxy      string    `json:"proxy"`
	Logic      string    `json:"logic"`
	Owner      string    `json:"owner"`
	CreatedAt  time.Time `json:"created_at"`
	UpgradedAt time.Time `json:"upgraded_at"`
}

// FromInstance converts an instance to its HTTP representation.
func FromInstance(inst *instance.Instance) *InstanceResponse {
	return &InstanceResponse{
		Client:     inst.Client.Hex(),
		Proxy:      inst.ProxyAddress.Hex(),
		Logic:      inst.LogicAddress.Hex(),
		Owner:      inst.Owner.Hex(),
		CreatedAt:  inst.CreatedAt,
		UpgradedAt: inst.UpgradedAt,
	}
}

// HandleCreate handles POST /v1/instances.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}

	inst, err := h.service.Create(ctx, req.parsedClient, req.parsedLogic, req.parsedOwner)
	if err != nil {
		h.logger.WarnContext(ctx, "instance creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"client", req.Client,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromInstance(inst))
}

// HandleGet handles GET /v1/instances/{client}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client, err := parseAddress(chi.URLParam(r, "client"), "client")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	inst, err := h.service.Get(ctx, client)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInstance(inst))
}

// HandleUpgrade handles POST /v1/instances/{client}/upgrade.
func (h *Handler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client, err := parseAddress(chi.URLParam(r, "client"), "client")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpgradeRequest](w, r, h.logger)
	if !ok {
		return
	}

	inst, err := h.service.Upgrade(ctx, client, req.parsedLogic)
	if err != nil {
		h.logger.WarnContext(ctx, "instance upgrade failed",
			"request_id", requestcontext.RequestID(ctx),
			"client", client,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInstance(inst))
}

func parseAddress(raw, field string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a hex address", field)
	}
	return common.HexToAddress(raw), nil
}
