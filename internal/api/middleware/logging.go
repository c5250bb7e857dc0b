package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/saasplatform/internal/logger"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
)

// Logging stores a request-scoped logger in the context and writes one
// access line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := logger.L().With(zap.String("request_id", chimiddleware.GetReqID(r.Context())))
		ctx := logger.WithContext(r.Context(), reqLog)

		next.ServeHTTP(ww, r.WithContext(ctx))

		// The tenant binding lives in the handler's context, so read the
		// signal from the request itself.
		reqLog.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
			zap.String("tenant", tenant.ExtractSubdomain(r)),
			zap.String("remote_addr", r.RemoteAddr))
	})
}
