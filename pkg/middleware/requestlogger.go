package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/PaintCatalog/pkg/logger"
)

// RequestLogger builds a request-scoped logger from the context fields set by
// the earlier middleware and stores it via logger.NewContext. Mount it after
// RequestLogging, Tracing and Identity.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.UserIDFromContext(ctx) == "" {
				if userID := UserIDFromContext(ctx); userID != "" {
					ctx = logger.WithUserID(ctx, userID)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
