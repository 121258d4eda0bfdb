package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/utafrali/PaintCatalog/pkg/httputil"
	"github.com/utafrali/PaintCatalog/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// UserIDHeader carries the caller identity set by the gateway.
const UserIDHeader = "X-User-ID"

// owner IDs end up in persistence keys, so the alphabet is restricted.
var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,128}$`)

// Identity resolves the request owner from the X-User-ID header. Requests
// without the header are attributed to fallback; an empty fallback rejects
// them with 401.
func Identity(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(UserIDHeader)
			if userID == "" {
				if fallback == "" {
					writeMiddlewareError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
					return
				}
				userID = fallback
			}
			if !ownerPattern.MatchString(userID) {
				writeMiddlewareError(w, http.StatusBadRequest, "INVALID_PARAMETER", "malformed "+UserIDHeader+" header")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = logger.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeMiddlewareError(w http.ResponseWriter, status int, code, message string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message},
	})
}
