// Package requestid assigns every request an id for log and audit
// correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"trustline/pkg/requestcontext"
)

// Header carries the request id back to the caller.
const Header = "X-Request-ID"

// Middleware reuses the caller-supplied request id when present, otherwise
// generates one. The id is echoed in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
