package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oily/oily-api/infrastructure/service/logger"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"

	maxCorrelationIDLength = 64
)

// CorrelationIDMiddleware reuses the caller's correlation id when it looks
// sane, otherwise mints one. The id is echoed on the response and attached
// to the request context for logging.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if !validCorrelationID(cid) {
			cid = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, cid)

		ctx := logger.WithCorrelationID(r.Context(), cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validCorrelationID accepts up to 64 characters of [A-Za-z0-9._-].
func validCorrelationID(cid string) bool {
	if cid == "" || len(cid) > maxCorrelationIDLength {
		return false
	}
	for _, c := range cid {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
