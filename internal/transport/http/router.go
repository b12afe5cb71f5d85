// Package httptransport assembles the HTTP surface: public trustline
// endpoints, JWT-guarded admin endpoints, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	enginehandler "trustline/internal/engine/handler"
	instancehandler "trustline/internal/instance/handler"
	policyhandler "trustline/internal/policy/handler"
	"trustline/internal/ratelimit"
	"trustline/pkg/platform/httputil"
	"trustline/pkg/platform/middleware/auth"
	"trustline/pkg/platform/middleware/metadata"
	"trustline/pkg/platform/middleware/requestid"
	"trustline/pkg/platform/middleware/requesttime"
)

// Handlers bundles the per-module handlers the router mounts.
type Handlers struct {
	Engine   *enginehandler.Handler
	Policy   *policyhandler.Handler
	Instance *instancehandler.Handler
}

// Options carries router-level policy knobs.
type Options struct {
	// RateLimitStore and RateLimitPerMinute enable per-IP limiting of the
	// decision endpoints; a nil store or zero limit disables it.
	RateLimitStore     ratelimit.BucketStore
	RateLimitPerMinute int
}

// NewRouter wires all endpoints. Decision endpoints are public; policy and
// instance management require an admin token.
func NewRouter(h Handlers, adminTokens auth.TokenValidator, opts Options, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimitStore != nil && opts.RateLimitPerMinute > 0 {
				r.Use(ratelimit.Middleware(opts.RateLimitStore, opts.RateLimitPerMinute, time.Minute, logger))
			}
			h.Engine.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(adminTokens, logger))
			h.Policy.Register(r)
			h.Instance.Register(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
