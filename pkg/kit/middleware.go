package kit

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CorrelationHeader = "X-Correlation-Id"

type ctxKey string

const correlationKey ctxKey = "correlation_id"

func Recoverer(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}

// CorrelationID propagates an incoming X-Correlation-Id header or mints a new
// one, and echoes it on the response so clients can reference the request.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}

		w.Header().Set(CorrelationHeader, cid)

		ctx := context.WithValue(r.Context(), correlationKey, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CorrelationFromContext(ctx context.Context) string {
	cid, _ := ctx.Value(correlationKey).(string)
	return cid
}

func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("correlation_id", CorrelationFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
