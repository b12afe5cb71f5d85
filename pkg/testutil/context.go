package testutil

import (
	"net/http"
	"time"

	"trustline/pkg/requestcontext"
)

// WithRequestID stamps a request id onto the request context, simulating the
// requestid middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFrozenTime pins the request-scoped clock, simulating the requesttime
// middleware with a deterministic now.
func WithFrozenTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithCaller marks the request as made by an authenticated admin operator.
func WithCaller(req *http.Request, operator string) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), operator))
}
